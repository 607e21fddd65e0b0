package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/jdarling/eventdash/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CacheTTLMS, convey.ShouldEqual, 30_000)
				convey.So(cfg.DangerZonePollMS, convey.ShouldEqual, 60_000)
				convey.So(cfg.TopProductsLimit, convey.ShouldEqual, 10)
				convey.So(cfg.MinConversionRate, convey.ShouldEqual, 30)
				convey.So(cfg.InstrumentStock, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DASHD_ADDR", ":8080")
			_ = os.Setenv("DASHD_UPSTREAM_BASE_URL", "https://gateway.example.com")
			_ = os.Setenv("DASHD_CACHE_TTL_MS", "5000")
			_ = os.Setenv("DASHD_TOP_PRODUCTS_LIMIT", "5")
			_ = os.Setenv("DASHD_INSTRUMENT_STOCK", "25")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.UpstreamBaseURL, convey.ShouldEqual, "https://gateway.example.com")
				convey.So(cfg.CacheTTLMS, convey.ShouldEqual, 5000)
				convey.So(cfg.TopProductsLimit, convey.ShouldEqual, 5)
				convey.So(cfg.InstrumentStock, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":7070"
upstream_base_url: "https://proxy.example.org"
danger_zone_poll_ms: 15000
refresh_worker_count: 8
`
			tmpFile := createTempConfigFile(t, yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DASHD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.UpstreamBaseURL, convey.ShouldEqual, "https://proxy.example.org")
				convey.So(cfg.DangerZonePollMS, convey.ShouldEqual, 15000)
				convey.So(cfg.RefreshWorkerCount, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When env vars override the YAML file", func() {
			yamlContent := `
addr: ":7070"
cache_ttl_ms: 1000
`
			tmpFile := createTempConfigFile(t, yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DASHD_CONFIG", tmpFile)
			_ = os.Setenv("DASHD_CACHE_TTL_MS", "2000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.CacheTTLMS, convey.ShouldEqual, 2000)
			})
		})

		convey.Convey("When a validated field is invalid", func() {
			_ = os.Setenv("DASHD_CACHE_TTL_MS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail with ErrInvalidConfig", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"DASHD_CONFIG",
		"DASHD_ADDR",
		"DASHD_UPSTREAM_BASE_URL",
		"DASHD_CACHE_TTL_MS",
		"DASHD_DANGER_ZONE_POLL_MS",
		"DASHD_TOP_PRODUCTS_LIMIT",
		"DASHD_INSTRUMENT_STOCK",
		"DASHD_REFRESH_WORKER_COUNT",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "dashd-config-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	_ = f.Close()
	return f.Name()
}
