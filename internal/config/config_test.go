package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/wakepoint/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.Sensitivity, convey.ShouldEqual, 0.7)
			convey.So(cfg.AnalysisLevel, convey.ShouldEqual, "advanced")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"zero queue":        func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":      func(c *config.Config) { c.WorkerCount = 0 },
			"unknown store":     func(c *config.Config) { c.Store = "redis" },
			"sqlite no path":    func(c *config.Config) { c.Store = config.StoreSQLite; c.SQLitePath = "" },
			"sensitivity high":  func(c *config.Config) { c.Sensitivity = 1.5 },
			"unknown level":     func(c *config.Config) { c.AnalysisLevel = "expert" },
			"zero moment limit": func(c *config.Config) { c.MaxMomentsLimit = 0 },
			"negative retain":   func(c *config.Config) { c.RetentionHours = -1 },
			"unknown format":    func(c *config.Config) { c.LogFormat = "xml" },
		}

		for name, mutate := range cases {
			convey.Convey("When validating with "+name, func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then it should be rejected as invalid", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
