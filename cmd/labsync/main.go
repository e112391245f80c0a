package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	app "github.com/okian/labsync/internal/app"
	"github.com/okian/labsync/internal/config"
	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/domain/region"
	"github.com/okian/labsync/internal/session"
	"github.com/okian/labsync/pkg/logger"
	"github.com/okian/labsync/pkg/metrics"
)

const statsInterval = time.Minute

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.MetricsAddr != "" {
		go func() {
			log.Info(ctx, "serving metrics", logger.String("addr", cfg.MetricsAddr))
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error(ctx, "metrics server failed", logger.Error(err))
			}
		}()
	}

	svc := app.New(serviceOptions(cfg, log)...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	for _, name := range cfg.Topics {
		h, err := svc.Follow(name, func(n app.Notice) { logNotice(ctx, log, n) })
		if err != nil {
			log.Warn(ctx, "cannot follow topic", logger.String("topic", name), logger.Error(err))
			continue
		}
		defer h.Stop()
		log.Info(ctx, "following topic", logger.String("topic", h.Topic().String()))
	}

	go func() {
		if err := readSignals(ctx, os.Stdin, svc.Enqueue, log); err != nil {
			log.Warn(ctx, "reading region signals stopped", logger.Error(err))
		}
	}()
	go reportStats(ctx, svc, log)

	<-ctx.Done()
	log.Info(context.Background(), "shutting down...")
}

func serviceOptions(cfg *config.Config, log logger.Logger) []app.Option {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithStorage(cfg.StorageDriver, cfg.StorageDSN),
		app.WithRequestTimeout(cfg.RequestTimeout),
		app.WithPingPeriod(cfg.PingPeriod),
		app.WithQueueSize(cfg.RegionQueueSize),
		app.WithAutoCheckin(cfg.AutoCheckin),
	}
	// without a server URL the persisted configuration is kept
	if cfg.ServerURL != "" {
		opts = append(opts, app.WithSettings(session.Settings{
			ServerURL:           cfg.ServerURL,
			APIKey:              cfg.APIKey,
			SharingDefault:      cfg.SharingDefault,
			SocketAutoSwitching: cfg.SocketAutoSwitching,
		}))
	}
	return opts
}

// readSignals feeds one region signal per line into enqueue until r is
// exhausted or ctx is done. Blank lines and lines starting with # are skipped.
func readSignals(ctx context.Context, r io.Reader, enqueue func(context.Context, region.Signal) error, log logger.Logger) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sig, err := region.ParseSignal(line)
		if err != nil {
			log.Warn(ctx, "ignoring region signal", logger.String("line", line), logger.Error(err))
			continue
		}
		if err := enqueue(ctx, sig); err != nil {
			if errors.Is(err, app.ErrNotStarted) {
				return nil
			}
			log.Warn(ctx, "region signal dropped", logger.String("line", line), logger.Error(err))
		}
	}
	return scanner.Err()
}

func describeNotice(n app.Notice) string {
	switch {
	case n.Disconnected:
		return "disconnected " + humanize.Time(n.Received) + ": " + apierr.Summary(n.Err)
	case n.Err != nil:
		return "bad update " + humanize.Time(n.Received) + ": " + apierr.Summary(n.Err)
	default:
		return humanize.Comma(int64(n.Items)) + " items " + humanize.Time(n.Received)
	}
}

func logNotice(ctx context.Context, log logger.Logger, n app.Notice) {
	fields := []logger.Field{logger.String("topic", n.Topic), logger.String("update", describeNotice(n))}
	if n.Err != nil || n.Disconnected {
		log.Warn(ctx, "topic update", fields...)
		return
	}
	log.Info(ctx, "topic update", fields...)
}

func reportStats(ctx context.Context, svc *app.Service, log logger.Logger) {
	started := time.Now()
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats(ctx)
			log.Info(ctx, "status",
				logger.String("up", strings.TrimSpace(humanize.RelTime(started, time.Now(), "", ""))),
				logger.Any("location", stats["location"]),
				logger.Any("queueLength", stats["queueLength"]),
				logger.Any("signedIn", stats["signedIn"]),
			)
		}
	}
}
