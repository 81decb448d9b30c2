package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/medcost/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8501")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.ModelPath, convey.ShouldEqual, "modele.yaml")
			convey.So(cfg.PredictorURL, convey.ShouldBeEmpty)
			convey.So(cfg.FallbackOnError, convey.ShouldBeFalse)
			convey.So(cfg.MinAge, convey.ShouldEqual, 18)
			convey.So(cfg.MaxAge, convey.ShouldEqual, 100)
			convey.So(cfg.MaxChildren, convey.ShouldEqual, 10)
			convey.So(cfg.Currency, convey.ShouldEqual, "$")
			convey.So(cfg.BatchWorkers, convey.ShouldEqual, 0)
			convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 100)
			convey.So(cfg.PredictorTimeout(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs breaking one invariant each", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":       func(c *config.Config) { c.Addr = "" },
			"negative min age": func(c *config.Config) { c.MinAge = -1 },
			"max age over 120": func(c *config.Config) { c.MaxAge = 121 },
			"inverted range":   func(c *config.Config) { c.MinAge, c.MaxAge = 60, 40 },
			"negative max kid": func(c *config.Config) { c.MaxChildren = -1 },
			"zero timeout":     func(c *config.Config) { c.PredictorTimeoutMS = 0 },
			"negative workers": func(c *config.Config) { c.BatchWorkers = -2 },
			"zero batch size":  func(c *config.Config) { c.MaxBatchSize = 0 },
			"unknown format":   func(c *config.Config) { c.LogFormat = "xml" },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then the full 0-120 range is accepted", func() {
			cfg := config.New()
			cfg.MinAge, cfg.MaxAge = 0, 120
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
