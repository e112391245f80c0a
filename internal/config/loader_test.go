package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/labsync/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"LABSYNC_CONFIG",
	"LABSYNC_ENV_FILE",
	"LABSYNC_LOG_LEVEL",
	"LABSYNC_SERVER_URL",
	"LABSYNC_API_KEY",
	"LABSYNC_STORAGE_DRIVER",
	"LABSYNC_STORAGE_DSN",
	"LABSYNC_REQUEST_TIMEOUT",
	"LABSYNC_PING_PERIOD",
	"LABSYNC_SOCKET_AUTO_SWITCHING",
	"LABSYNC_SHARING_DEFAULT",
	"LABSYNC_METRICS_ADDR",
	"LABSYNC_AUTO_CHECKIN",
	"LABSYNC_REGION_QUEUE_SIZE",
	"LABSYNC_TOPICS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// keep a stray .env in the package directory out of the way
		_ = os.Setenv("LABSYNC_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LABSYNC_SERVER_URL", "https://lab.example.com")
			_ = os.Setenv("LABSYNC_STORAGE_DRIVER", "memory")
			_ = os.Setenv("LABSYNC_REQUEST_TIMEOUT", "5s")
			_ = os.Setenv("LABSYNC_AUTO_CHECKIN", "true")
			_ = os.Setenv("LABSYNC_REGION_QUEUE_SIZE", "8")
			_ = os.Setenv("LABSYNC_TOPICS", "events,lights")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ServerURL, convey.ShouldEqual, "https://lab.example.com")
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.AutoCheckin, convey.ShouldBeTrue)
				convey.So(cfg.RegionQueueSize, convey.ShouldEqual, 8)
				convey.So(cfg.Topics, convey.ShouldResemble, []string{"events", "lights"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeTempFile(t, "labsync.yaml", `
log_level: debug
server_url: "https://yaml.example.com"
storage_driver: sqlite
storage_dsn: "/tmp/labsync.db"
ping_period: 10s
sharing_default: true
topics:
  - location
  - food
`)
			_ = os.Setenv("LABSYNC_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.ServerURL, convey.ShouldEqual, "https://yaml.example.com")
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.StorageDSN, convey.ShouldEqual, "/tmp/labsync.db")
				convey.So(cfg.PingPeriod, convey.ShouldEqual, 10*time.Second)
				convey.So(cfg.SharingDefault, convey.ShouldBeTrue)
				convey.So(cfg.Topics, convey.ShouldResemble, []string{"location", "food"})
				convey.So(cfg.RegionQueueSize, convey.ShouldEqual, 64)
			})

			convey.Convey("And an env var overrides the same key", func() {
				_ = os.Setenv("LABSYNC_LOG_LEVEL", "warn")

				cfg, err := config.Load(ctx)

				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
				convey.So(cfg.ServerURL, convey.ShouldEqual, "https://yaml.example.com")
			})
		})

		convey.Convey("When a dotenv file is present", func() {
			path := writeTempFile(t, "test.env", "LABSYNC_API_KEY=from-dotenv\nLABSYNC_STORAGE_DRIVER=memory\n")
			_ = os.Setenv("LABSYNC_ENV_FILE", path)
			_ = os.Setenv("LABSYNC_STORAGE_DRIVER", "toml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills variables that are not already set", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIKey, convey.ShouldEqual, "from-dotenv")
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "toml")
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("LABSYNC_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("LABSYNC_STORAGE_DRIVER", "mongo")

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail with an invalid config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a duration cannot be parsed", func() {
			_ = os.Setenv("LABSYNC_PING_PERIOD", "soon")

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}
