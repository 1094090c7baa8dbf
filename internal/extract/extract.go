// Package extract cuts a time range out of a source video with ffmpeg.
package extract

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/fileutil"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/process"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/timecode"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

const op = "extract.Extract"

// DefaultMinClipBytes is the size a stream-copied clip must exceed to be kept.
const DefaultMinClipBytes = 1024

// Config holds extractor settings
type Config struct {
	FFmpegPath      string
	FFprobePath     string
	WorkDir         string
	MaxClipDuration float64
	MinClipBytes    int64
	VideoBitrate    string
	AudioBitrate    string
	Preset          string
}

// ConfigFrom maps the clipper configuration section onto extractor settings.
func ConfigFrom(c config.ClipperConfig) Config {
	return Config{
		FFmpegPath:      c.FFmpegPath,
		FFprobePath:     c.FFprobePath,
		WorkDir:         c.WorkDir,
		MaxClipDuration: c.MaxClipDuration,
		MinClipBytes:    c.MinClipBytes,
		VideoBitrate:    c.VideoBitrate,
		AudioBitrate:    c.AudioBitrate,
		Preset:          c.Preset,
	}
}

// Extractor produces clips using a stream-copy fast path with a re-encode fallback
type Extractor struct {
	cfg    Config
	runner process.Runner
	prober *Prober
	logger *logging.Logger
	now    func() time.Time
}

// New creates an Extractor
func New(cfg Config, runner process.Runner, logger *logging.Logger) *Extractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.MinClipBytes <= 0 {
		cfg.MinClipBytes = DefaultMinClipBytes
	}
	if cfg.VideoBitrate == "" {
		cfg.VideoBitrate = "2500k"
	}
	if cfg.AudioBitrate == "" {
		cfg.AudioBitrate = "128k"
	}
	if cfg.Preset == "" {
		cfg.Preset = "veryfast"
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{
		cfg:    cfg,
		runner: runner,
		prober: NewProber(cfg.FFprobePath, runner),
		logger: logger,
		now:    time.Now,
	}
}

// Prober returns the ffprobe wrapper sharing this extractor's runner.
func (e *Extractor) Prober() *Prober {
	return e.prober
}

// Extract writes rng of source to a new clip_<uuid>.mp4 in the work directory.
//
// The stream-copy result is accepted only if ffmpeg exits 0 and the output is
// larger than MinClipBytes; otherwise the clip is re-encoded. On failure no
// output file is left behind.
func (e *Extractor) Extract(ctx context.Context, source string, rng models.TimeRange) (*models.ClipArtifact, error) {
	if err := timecode.Validate(rng, e.cfg.MaxClipDuration, 0); err != nil {
		return nil, err
	}
	if !fileutil.Exists(source) {
		return nil, models.NewError(models.ErrExtractionFailed, op, "source file not found").
			WithDetail(source)
	}
	if err := fileutil.EnsureDir(e.cfg.WorkDir); err != nil {
		return nil, models.NewError(models.ErrExtractionFailed, op, "cannot create work directory").Wrap(err)
	}

	id := uuid.New().String()
	out := filepath.Join(e.cfg.WorkDir, "clip_"+id+".mp4")
	log := e.logger.WithClipID(id)

	method := models.ExtractMethodCopy
	res, err := e.runPhase(ctx, "copy", e.copyArgs(source, out, rng))
	if err == nil && !e.usable(res, out) {
		log.Infof("Stream copy unusable (exit %d, %d bytes), re-encoding", res.ExitCode, fileutil.SizeOf(out))
		fileutil.Delete(out)

		method = models.ExtractMethodReencode
		res, err = e.runPhase(ctx, "reencode", e.reencodeArgs(source, out, rng))
		if err == nil && (!res.Success() || fileutil.SizeOf(out) == 0) {
			err = models.NewError(models.ErrExtractionFailed, op, "re-encode produced no output").
				WithDetail(logging.Tail(res.Stderr, 4096))
		}
	}
	if err != nil {
		fileutil.Delete(out)
		return nil, err
	}

	e.validate(ctx, log, out)

	size := fileutil.SizeOf(out)
	metrics.RecordClipSize(size)
	log.WithFields(map[string]interface{}{
		"method":     method,
		"size_bytes": size,
		"duration":   rng.Duration(),
	}).Info("Clip created")

	return &models.ClipArtifact{
		ID:        id,
		Path:      out,
		Size:      size,
		Duration:  rng.Duration(),
		Method:    method,
		CreatedAt: e.now(),
	}, nil
}

func (e *Extractor) runPhase(ctx context.Context, phase string, args []string) (process.Result, error) {
	res, err := e.runner.Run(ctx, e.cfg.FFmpegPath, args...)
	e.logger.LogToolInvocation("ffmpeg", phase, res.ExitCode, res.Duration, res.Stderr)

	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if !res.Success() {
		outcome = "failed"
	}
	metrics.RecordExtraction(phase, outcome, res.Duration.Seconds())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, models.NewError(models.ErrExtractionFailed, op, "cancelled").Wrap(ctxErr)
		}
		return res, models.NewError(models.ErrExtractionFailed, op, "ffmpeg could not be run").Wrap(err)
	}
	return res, nil
}

func (e *Extractor) usable(res process.Result, out string) bool {
	return res.Success() && fileutil.SizeOf(out) > e.cfg.MinClipBytes
}

// validate counts video packets in the finished clip; problems are logged only.
func (e *Extractor) validate(ctx context.Context, log *logging.Logger, out string) {
	n, err := e.prober.CountVideoPackets(ctx, out)
	if err != nil {
		metrics.ProbeWarningsTotal.Inc()
		log.WarnWithErr("Could not validate clip", err)
		return
	}
	if n == 0 {
		metrics.ProbeWarningsTotal.Inc()
		log.Warn("Clip contains no video packets")
	}
}

func (e *Extractor) copyArgs(source, out string, rng models.TimeRange) []string {
	return []string{
		"-ss", seconds(rng.Start),
		"-i", source,
		"-to", seconds(rng.Duration()),
		"-c", "copy",
		"-map_metadata", "-1",
		"-avoid_negative_ts", "make_zero",
		"-y", out,
	}
}

func (e *Extractor) reencodeArgs(source, out string, rng models.TimeRange) []string {
	return []string{
		"-ss", seconds(rng.Start),
		"-i", source,
		"-t", seconds(rng.Duration()),
		"-c:v", "libx264",
		"-profile:v", "high",
		"-level", "4.0",
		"-pix_fmt", "yuv420p",
		"-preset", e.cfg.Preset,
		"-b:v", e.cfg.VideoBitrate,
		"-c:a", "aac",
		"-b:a", e.cfg.AudioBitrate,
		"-movflags", "+faststart",
		"-map_metadata", "-1",
		"-avoid_negative_ts", "make_zero",
		"-fflags", "+genpts",
		"-y", out,
	}
}

func seconds(v float64) string {
	return timecode.FromSeconds(v)
}
