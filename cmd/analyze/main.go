// Command analyze identifies the key decision points of one recorded race.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/internal/domain/params"
	"github.com/okian/wakepoint/internal/engine"
	"github.com/okian/wakepoint/internal/trackio"
	"github.com/okian/wakepoint/pkg/logger"
)

const outputPermission = 0o644

// errUsage marks command line mistakes.
var errUsage = errors.New("usage")

type options struct {
	track       string
	wind        string
	competitors string
	course      string
	sensitivity float64
	level       string
	out         string
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			os.Stderr.WriteString("analyze: " + err.Error() + "\n")
		}
		os.Exit(2)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.track, "track", "", "GPX track of the analysed boat (required)")
	fs.StringVar(&o.wind, "wind", "", "JSON array of wind observations")
	fs.StringVar(&o.competitors, "competitors", "", "JSON array of competitor fixes")
	fs.StringVar(&o.course, "course", "", "YAML course description")
	fs.Float64Var(&o.sensitivity, "sensitivity", params.DefaultSensitivity, "detection sensitivity in [0,1]")
	fs.StringVar(&o.level, "level", string(params.Advanced), "analysis level: basic, intermediate, advanced or professional")
	fs.StringVar(&o.out, "out", "", "output file (default stdout)")
	fs.BoolVar(&o.verbose, "verbose", false, "log detector activity to stderr")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	o.level = strings.ToLower(strings.TrimSpace(o.level))
	switch {
	case o.track == "":
		return o, fmt.Errorf("%w: -track is required", errUsage)
	case o.sensitivity < 0 || o.sensitivity > 1:
		return o, fmt.Errorf("%w: -sensitivity must be in [0,1]", errUsage)
	case !params.Level(o.level).Valid():
		return o, fmt.Errorf("%w: unknown level %q", errUsage, o.level)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithOutput(stderr), logger.WithSource(false)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	in, err := loadInput(o)
	if err != nil {
		return err
	}

	e := engine.New(engine.WithLogger(logger.Get().Named("analyze")))
	res := e.IdentifyKeyPoints(ctx, in)

	w := stdout
	if o.out != "" {
		f, err := os.OpenFile(o.out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPermission)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if res.Status == model.StatusError {
		return fmt.Errorf("analysis failed: %s", res.Error)
	}
	return nil
}

// loadInput reads every input file named by the flags.
func loadInput(o options) (engine.Input, error) {
	sensitivity := o.sensitivity
	in := engine.Input{Sensitivity: &sensitivity, Level: o.level}

	track, err := readFile(o.track, trackio.ReadTrack)
	if err != nil {
		return in, err
	}
	in.Track = track

	if o.wind != "" {
		if in.Wind, err = readFile(o.wind, trackio.ReadWind); err != nil {
			return in, err
		}
	}
	if o.competitors != "" {
		if in.Competitors, err = readFile(o.competitors, trackio.ReadCompetitors); err != nil {
			return in, err
		}
	}
	if o.course != "" {
		if in.Course, err = readFile(o.course, trackio.ReadCourse); err != nil {
			return in, err
		}
	}
	return in, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", path, err)
	}
	return v, nil
}
