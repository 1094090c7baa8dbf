// Package acquire downloads source videos with yt-dlp through a chain of
// fallback strategies.
package acquire

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/fileutil"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/process"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

const op = "acquire.Download"

// videoExtensions are the container types accepted when <id>.mp4 is absent.
var videoExtensions = map[string]bool{".mp4": true, ".webm": true, ".mkv": true}

// partialSuffixes mark yt-dlp in-progress files.
var partialSuffixes = []string{".part", ".ytdl"}

// Config holds acquirer settings
type Config struct {
	YtdlpPath            string
	WorkDir              string
	UserAgent            string
	PrimaryAuthContext   string
	FallbackAuthContexts []string
	BotSignatures        []string
	PrimaryPacing        Pacing
	FallbackPacing       Pacing
	LastResortPacing     Pacing
}

// ConfigFrom maps the clipper configuration section onto acquirer settings.
func ConfigFrom(c config.ClipperConfig) Config {
	return Config{
		YtdlpPath:            c.YtdlpPath,
		WorkDir:              c.WorkDir,
		UserAgent:            c.UserAgent,
		PrimaryAuthContext:   c.PrimaryAuthContext,
		FallbackAuthContexts: c.FallbackAuthContexts,
		BotSignatures:        c.BotSignatures,
		PrimaryPacing:        Pacing{Min: c.PrimarySleepMin, Max: c.PrimarySleepMax},
		FallbackPacing:       Pacing{Min: c.FallbackSleepMin, Max: c.FallbackSleepMax},
		LastResortPacing:     Pacing{Min: c.LastResortSleepMin, Max: c.LastResortSleepMax},
	}
}

// Acquirer fetches a source video to WorkDir
type Acquirer struct {
	cfg    Config
	runner process.Runner
	logger *logging.Logger
}

// New creates an Acquirer
func New(cfg Config, runner process.Runner, logger *logging.Logger) *Acquirer {
	if cfg.YtdlpPath == "" {
		cfg.YtdlpPath = "yt-dlp"
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Acquirer{cfg: cfg, runner: runner, logger: logger}
}

// Download fetches url and returns the local path of <id>.<ext>.
//
// The primary strategy runs first. A bot-detection failure walks the alternate
// auth contexts; any other failure goes straight to the anonymous last resort.
func (a *Acquirer) Download(ctx context.Context, videoID, url string) (string, error) {
	start := time.Now()
	log := a.logger.WithVideoID(videoID)

	if err := fileutil.EnsureDir(a.cfg.WorkDir); err != nil {
		return "", models.NewError(models.ErrAcquisitionFailed, op, "cannot create work directory").Wrap(err)
	}

	out := a.attempt(ctx, a.cfg.Primary(), videoID, url)
	if out.Kind == Retry && a.botDetected(out.Stderr) {
		log.Warn("Bot detection triggered, trying alternate auth contexts")
		for _, s := range a.cfg.Fallbacks() {
			out = a.attempt(ctx, s, videoID, url)
			if out.Kind != Retry {
				break
			}
		}
	}
	if out.Kind == Retry {
		out = a.attempt(ctx, a.cfg.LastResort(), videoID, url)
	}

	elapsed := time.Since(start).Seconds()
	switch out.Kind {
	case Success:
		metrics.RecordAcquisition("success", elapsed, fileutil.SizeOf(out.Path))
		log.WithField("path", out.Path).Info("Video downloaded")
		return out.Path, nil
	case Fatal:
		metrics.RecordAcquisition("aborted", elapsed, 0)
		a.cleanupPartials(videoID)
		return "", models.NewError(models.ErrAcquisitionFailed, op, out.Reason).Wrap(out.Err)
	default:
		metrics.RecordAcquisition("failed", elapsed, 0)
		a.cleanupPartials(videoID)
		return "", models.NewError(models.ErrAcquisitionFailed, op,
			"source may be unavailable or all strategies were rejected").
			WithDetail(logging.Tail(out.Stderr, 2048))
	}
}

func (a *Acquirer) attempt(ctx context.Context, s Strategy, videoID, url string) Outcome {
	if err := ctx.Err(); err != nil {
		return fatal("cancelled", err)
	}

	log := a.logger.WithVideoID(videoID)
	log.Debugf("Trying %s strategy", s.Name)

	res, err := a.runner.Run(ctx, a.cfg.YtdlpPath, s.Args(a.cfg.WorkDir, videoID, url, a.cfg.UserAgent)...)
	log.LogToolInvocation("yt-dlp", s.Name, res.ExitCode, res.Duration, res.Stderr)

	out := a.classify(ctx, res, err, videoID)
	if out.Kind == Fatal {
		log.WithError(out.Err).Warnf("Strategy %s aborted: %s", s.Name, out.Reason)
	}
	metrics.RecordAcquisitionAttempt(s.Name, out.Kind.String())
	return out
}

func (a *Acquirer) classify(ctx context.Context, res process.Result, err error, videoID string) Outcome {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fatal("cancelled", ctxErr)
	}
	if err != nil {
		return fatal("yt-dlp could not be run", err)
	}
	if !res.Success() {
		return retry(fmt.Sprintf("yt-dlp exited with status %d", res.ExitCode), res.Stderr)
	}
	path, ok := a.locate(videoID)
	if !ok {
		return retry("downloaded file not found", res.Stderr)
	}
	return succeeded(path)
}

func (a *Acquirer) botDetected(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, sig := range a.cfg.BotSignatures {
		if sig != "" && strings.Contains(lower, strings.ToLower(sig)) {
			return true
		}
	}
	return false
}

// locate finds <id>.mp4, then any <id>.* with an accepted video extension.
func (a *Acquirer) locate(videoID string) (string, bool) {
	preferred := filepath.Join(a.cfg.WorkDir, videoID+".mp4")
	if fileutil.Exists(preferred) {
		return preferred, true
	}

	matches, err := filepath.Glob(filepath.Join(a.cfg.WorkDir, videoID+".*"))
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		if videoExtensions[strings.ToLower(filepath.Ext(m))] && fileutil.Exists(m) {
			return m, true
		}
	}
	return "", false
}

// cleanupPartials removes in-progress downloads left by an interrupted run.
func (a *Acquirer) cleanupPartials(videoID string) {
	matches, err := filepath.Glob(filepath.Join(a.cfg.WorkDir, videoID+".*"))
	if err != nil {
		return
	}
	var partials []string
	for _, m := range matches {
		for _, suffix := range partialSuffixes {
			if strings.HasSuffix(m, suffix) {
				partials = append(partials, m)
				break
			}
		}
	}
	if n := fileutil.DeleteMany(partials); n > 0 {
		a.logger.WithVideoID(videoID).Infof("Removed %d partial download(s)", n)
	}
}
