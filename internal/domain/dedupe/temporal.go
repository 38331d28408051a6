package dedupe

import (
	"time"

	"github.com/okian/wakepoint/internal/domain/model"
)

// Standard merge tolerances.
const (
	DefaultTolerance   = 30 * time.Second
	AdvantageTolerance = 60 * time.Second
)

// Temporal keeps the first point and then every point at least tol after the
// last kept one. The input is not modified.
func Temporal(points []model.Point, tol time.Duration) []model.Point {
	return TemporalBy(points, tol, func(model.Point) string { return "" })
}

// TemporalBy applies Temporal independently per key. A point is dropped when
// the last kept point with the same key is less than tol before it.
func TemporalBy(points []model.Point, tol time.Duration, key func(model.Point) string) []model.Point {
	if len(points) == 0 {
		return nil
	}
	last := make(map[string]time.Time)
	out := make([]model.Point, 0, len(points))
	for _, p := range points {
		k := key(p)
		if prev, ok := last[k]; ok && p.Time.Sub(prev) < tol {
			continue
		}
		last[k] = p.Time
		out = append(out, p)
	}
	return out
}
