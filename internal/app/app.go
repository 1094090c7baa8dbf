// Package app assembles the clip pipeline from configuration. Both the API
// server and the CLI build their service through it.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/acquire"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/cache"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/cleanup"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/clipper"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/database"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/events"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/extract"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/lock"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/process"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/storage"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/webhook"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

// App owns the pipeline and every connection it opened
type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	Service *clipper.Service
	Store   database.DownloadStore
	Cleanup *cleanup.Scheduler

	closers []io.Closer
}

// Options adjusts how New assembles the pipeline
type Options struct {
	// Runner executes external tools. Nil uses the real exec runner.
	Runner process.Runner
	// SkipToolCheck disables the startup PATH check for yt-dlp and ffmpeg.
	SkipToolCheck bool
	// DisableCleanup leaves generated clips on disk instead of scheduling deletion.
	DisableCleanup bool
}

// New wires the service from cfg. Optional backends are connected only when
// enabled in cfg. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts Options) (_ *App, err error) {
	if logger == nil {
		logger = logging.Nop()
	}
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if !opts.SkipToolCheck {
		if errs := process.CheckTools(
			process.Tool{Name: "yt-dlp", Path: cfg.Clipper.YtdlpPath},
			process.Tool{Name: "ffmpeg", Path: cfg.Clipper.FFmpegPath},
			process.Tool{Name: "ffprobe", Path: cfg.Clipper.FFprobePath},
		); len(errs) > 0 {
			return nil, fmt.Errorf("missing required tools: %v", errs)
		}
	}

	_, tracerCloser, err := tracing.Init(cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, tracerCloser)

	store, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open download store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store)

	runner := opts.Runner
	if runner == nil {
		runner = process.NewExecRunner()
	}
	acquirer := acquire.New(acquire.ConfigFrom(cfg.Clipper), runner, logger)
	extractor := extract.New(extract.ConfigFrom(cfg.Clipper), runner, logger)

	svcOpts := []clipper.Option{
		clipper.WithLogger(logger),
		clipper.WithProber(extractor.Prober()),
	}

	var hooks []cleanup.ExpireFunc

	if cfg.Redis.Enabled {
		c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, c)
		svcOpts = append(svcOpts,
			clipper.WithLocker(lock.NewRedisLocker(c, cfg.Redis.LockTTL)),
			clipper.WithClipIndex(c),
		)
		hooks = append(hooks, func(ctx context.Context, clip *models.ClipArtifact) {
			if err := c.DeleteClip(ctx, clip.ID); err != nil {
				logger.WithClipID(clip.ID).WarnWithErr("Failed to drop expired clip from index", err)
			}
		})
		logger.Info("Redis clip index and distributed lock enabled")
	}

	if cfg.Storage.Enabled {
		s, err := storage.New(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		svcOpts = append(svcOpts, clipper.WithPublisher(s))
		hooks = append(hooks, func(ctx context.Context, clip *models.ClipArtifact) {
			if err := s.RemoveClip(ctx, clip); err != nil {
				logger.WithClipID(clip.ID).WarnWithErr("Failed to remove expired clip from storage", err)
			}
		})
		logger.Info("Object storage publishing enabled")
	}

	var publishers events.Multi
	if cfg.Queue.Enabled {
		p, err := events.New(cfg.Queue)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to event broker: %w", err)
		}
		publishers = append(publishers, p)
		logger.Info("Pipeline events enabled")
	}
	if cfg.Webhook.Enabled {
		publishers = append(publishers, webhook.New(cfg.Webhook))
		logger.Infof("Webhook delivery enabled for %d endpoints", len(cfg.Webhook.URLs))
	}
	if len(publishers) > 0 {
		a.closers = append(a.closers, publishers)
		svcOpts = append(svcOpts, clipper.WithEvents(publishers))
	}

	if !opts.DisableCleanup {
		// The service hook is bound after construction; the scheduler only
		// calls hooks from its loop, which has not started yet.
		var svc *clipper.Service
		hooks = append(hooks, func(ctx context.Context, clip *models.ClipArtifact) {
			svc.ClipExpired(ctx, clip)
		})
		a.Cleanup = cleanup.NewScheduler(cfg.Clipper.CleanupInterval, hooks...)
		svcOpts = append(svcOpts, clipper.WithScheduler(a.Cleanup))

		svc = clipper.NewService(clipper.ConfigFrom(cfg.Clipper), store, acquirer, extractor, svcOpts...)
		a.Service = svc
	} else {
		a.Service = clipper.NewService(clipper.ConfigFrom(cfg.Clipper), store, acquirer, extractor, svcOpts...)
	}

	return a, nil
}

// Start launches background work: the orphan sweep and the cleanup loop.
func (a *App) Start() {
	if a.Cleanup == nil {
		return
	}
	n, err := cleanup.Sweep(a.Config.Clipper.WorkDir, a.Config.Clipper.ClipRetention)
	if err != nil {
		a.Logger.WarnWithErr("Startup clip sweep failed", err)
	} else if n > 0 {
		a.Logger.Infof("Startup sweep removed %d orphaned clips", n)
	}
	a.Cleanup.Start()
}

// Close stops background work and closes connections in reverse order
func (a *App) Close() {
	if a.Cleanup != nil {
		a.Cleanup.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.WarnWithErr("Error during shutdown", err)
		}
	}
	a.closers = nil
}
