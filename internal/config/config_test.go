package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/touchline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.MaxSessions, convey.ShouldEqual, 1_000)
			convey.So(cfg.IdleTTLSeconds, convey.ShouldEqual, 1_800)
			convey.So(cfg.SweepIntervalSeconds, convey.ShouldEqual, 60)
			convey.So(cfg.DispatchQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.DispatchWorkers, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			convey.So(cfg.DefaultLanguage, convey.ShouldEqual, "en")
			convey.So(cfg.QueryTimeoutMS, convey.ShouldEqual, 5_000)
		})
	})
}
