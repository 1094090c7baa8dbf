// Package clipper orchestrates a clip request: resolve the source video
// through the download cache, then cut the requested range out of it.
package clipper

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/database"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/events"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/extract"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/fileutil"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/lock"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/timecode"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/youtube"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

// Acquirer downloads a source video and returns its local path
type Acquirer interface {
	Download(ctx context.Context, videoID, url string) (string, error)
}

// Extractor cuts a range out of a local source video
type Extractor interface {
	Extract(ctx context.Context, source string, rng models.TimeRange) (*models.ClipArtifact, error)
}

// Prober reads media metadata
type Prober interface {
	Probe(ctx context.Context, path string) (*extract.Metadata, error)
}

// ClipIndex maps clip IDs to artifacts for the download endpoint
type ClipIndex interface {
	SetClip(ctx context.Context, clip *models.ClipArtifact, ttl time.Duration) error
	GetClip(ctx context.Context, clipID string) (*models.ClipArtifact, error)
}

// Publisher copies a finished clip somewhere reachable and returns its URL
type Publisher interface {
	PublishClip(ctx context.Context, clip *models.ClipArtifact) (string, error)
}

// Scheduler takes ownership of deleting a clip once it expires
type Scheduler interface {
	Schedule(clip *models.ClipArtifact)
}

// Config holds orchestration settings
type Config struct {
	WorkDir         string
	MaxClipDuration float64
	ClipRetention   time.Duration
}

// ConfigFrom maps the clipper configuration section onto service settings.
func ConfigFrom(c config.ClipperConfig) Config {
	return Config{
		WorkDir:         c.WorkDir,
		MaxClipDuration: c.MaxClipDuration,
		ClipRetention:   c.ClipRetention,
	}
}

// Service runs the clip pipeline. It holds no per-request state.
type Service struct {
	cfg       Config
	store     database.DownloadStore
	acquirer  Acquirer
	extractor Extractor
	prober    Prober
	locker    lock.Locker
	index     ClipIndex
	publisher Publisher
	scheduler Scheduler
	events    events.Publisher
	logger    *logging.Logger
}

// Option configures optional collaborators
type Option func(*Service)

// WithProber records probed source durations on new cache records.
func WithProber(p Prober) Option { return func(s *Service) { s.prober = p } }

// WithLocker replaces the default in-process per-video lock.
func WithLocker(l lock.Locker) Option { return func(s *Service) { s.locker = l } }

// WithClipIndex indexes finished clips by ID.
func WithClipIndex(i ClipIndex) Option { return func(s *Service) { s.index = i } }

// WithPublisher uploads finished clips.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithScheduler hands finished clips to a deletion scheduler.
func WithScheduler(sch Scheduler) Option { return func(s *Service) { s.scheduler = sch } }

// WithEvents publishes pipeline events.
func WithEvents(p events.Publisher) Option { return func(s *Service) { s.events = p } }

// WithLogger sets the service logger.
func WithLogger(l *logging.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService creates a Service
func NewService(cfg Config, store database.DownloadStore, acquirer Acquirer, extractor Extractor, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		store:     store,
		acquirer:  acquirer,
		extractor: extractor,
		locker:    lock.NewKeyedLocker(),
		events:    events.Nop{},
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AcquireAndCache resolves url to a local source file, downloading it only
// when no active cache record points at an existing file.
func (s *Service) AcquireAndCache(ctx context.Context, url string) (string, string, error) {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return "", "", err
	}

	rec, _, err := s.resolve(ctx, videoID, false)
	if err != nil {
		return "", videoID, err
	}
	return rec.FilePath, videoID, nil
}

// ExtractClip cuts rng out of the source at path
func (s *Service) ExtractClip(ctx context.Context, path string, rng models.TimeRange) (*models.ClipArtifact, error) {
	span, ctx := tracing.StartSpan(ctx, "clipper.extract")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "start", rng.Start)
	tracing.SetTag(span, "end", rng.End)

	clip, err := s.extractor.Extract(ctx, path, rng)
	if err != nil {
		tracing.LogError(span, err)
		return nil, err
	}
	tracing.SetTag(span, "method", clip.Method)
	return clip, nil
}

// CreateClip runs a whole clip request: validate, resolve the source, extract.
//
// If extraction fails on a cached source, the record is deactivated, the video
// is downloaded again and extraction is retried once.
func (s *Service) CreateClip(ctx context.Context, url, start, end string) (*models.ClipResult, error) {
	span, ctx := tracing.StartSpan(ctx, "clipper.create_clip")
	defer tracing.FinishSpan(span)

	result, err := s.createClip(ctx, url, start, end)
	if err != nil {
		tracing.LogError(span, err)
		metrics.RecordError("clipper", errorType(err))
		return nil, err
	}
	tracing.SetTag(span, "video_id", result.VideoID)
	tracing.SetTag(span, "cache_hit", result.CacheHit)
	return result, nil
}

func (s *Service) createClip(ctx context.Context, url, start, end string) (*models.ClipResult, error) {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return nil, err
	}
	rng, err := timecode.ParseRange(start, end, s.cfg.MaxClipDuration, 0)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithVideoID(videoID)

	rec, hit, err := s.resolve(ctx, videoID, false)
	if err != nil {
		return nil, err
	}
	if err := timecode.Validate(rng, s.cfg.MaxClipDuration, rec.KnownDuration()); err != nil {
		return nil, err
	}

	clip, err := s.ExtractClip(ctx, rec.FilePath, rng)
	if err != nil && hit && errors.Is(err, models.ErrExtractionFailed) && ctx.Err() == nil {
		log.WarnWithErr("Extraction failed on cached source, downloading again", err)
		rec, _, err = s.resolve(ctx, videoID, true)
		if err != nil {
			return nil, err
		}
		hit = false
		clip, err = s.ExtractClip(ctx, rec.FilePath, rng)
	}
	if err != nil {
		return nil, err
	}

	clip.VideoID = videoID
	clip.ExpiresAt = clip.CreatedAt.Add(s.cfg.ClipRetention)
	result := &models.ClipResult{VideoID: videoID, Clip: clip, CacheHit: hit}

	if s.index != nil {
		if err := s.index.SetClip(ctx, clip, s.cfg.ClipRetention); err != nil {
			log.WarnWithErr("Failed to index clip", err)
		}
	}
	if s.publisher != nil {
		if u, err := s.publisher.PublishClip(ctx, clip); err != nil {
			log.WarnWithErr("Failed to publish clip", err)
		} else {
			result.URL = u
		}
	}
	if s.scheduler != nil {
		s.scheduler.Schedule(clip)
	}

	s.publish(ctx, &models.Event{
		Type:    models.EventClipCreated,
		VideoID: videoID,
		ClipID:  clip.ID,
		Data: map[string]interface{}{
			"method":    clip.Method,
			"size":      clip.Size,
			"duration":  clip.Duration,
			"cache_hit": hit,
		},
	})
	return result, nil
}

// resolve returns an active cache record whose file exists, downloading the
// video if needed. force discards any existing record first. The per-video
// lock is held only while resolving.
func (s *Service) resolve(ctx context.Context, videoID string, force bool) (*models.VideoDownload, bool, error) {
	span, ctx := tracing.StartSpan(ctx, "clipper.resolve_source")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "video_id", videoID)

	log := s.logger.WithVideoID(videoID)

	unlock, err := s.locker.Lock(ctx, "video:"+videoID)
	if err != nil {
		return nil, false, models.NewError(models.ErrAcquisitionFailed, "clipper.resolve", "waiting for download lock").Wrap(err)
	}
	defer unlock()

	if force {
		old, err := s.store.GetActiveDownload(ctx, videoID)
		if err != nil {
			return nil, false, err
		}
		if err := s.store.DeactivateDownload(ctx, videoID); err != nil {
			return nil, false, err
		}
		// yt-dlp skips downloads whose output already exists.
		if old != nil {
			fileutil.Delete(old.FilePath)
		}
	}

	rec, err := s.store.GetActiveDownload(ctx, videoID)
	if err != nil {
		tracing.LogError(span, err)
		return nil, false, err
	}
	if rec != nil && fileutil.Exists(rec.FilePath) {
		metrics.RecordCacheLookup("hit")
		log.LogCacheEvent(videoID, "hit", rec.FilePath)
		tracing.SetTag(span, "cache", "hit")
		return rec, true, nil
	}

	result := "miss"
	if rec != nil {
		result = "stale"
	}
	metrics.RecordCacheLookup(result)
	log.LogCacheEvent(videoID, result, "")
	tracing.SetTag(span, "cache", result)

	path, err := s.acquirer.Download(ctx, videoID, youtube.CanonicalURL(videoID))
	if err != nil {
		tracing.LogError(span, err)
		return nil, false, err
	}
	size := models.Int64Ptr(fileutil.SizeOf(path))

	if rec == nil {
		duration := models.IntPtr(s.probeDuration(ctx, log, path))
		created, err := s.store.CreateDownload(ctx, videoID, path, size, duration)
		if err != nil {
			// The file on disk is still usable.
			metrics.RecordCacheWriteFailure("create")
			log.WarnWithErr("Failed to save download record", err)
			created = &models.VideoDownload{
				VideoID:      videoID,
				FilePath:     path,
				FileSize:     size,
				Duration:     duration,
				DownloadedAt: time.Now(),
				IsActive:     true,
			}
		}
		rec = created
	} else {
		if err := s.store.UpdateDownloadPath(ctx, videoID, path, size); err != nil {
			metrics.RecordCacheWriteFailure("update")
			log.WarnWithErr("Failed to update download record", err)
		}
		rec.FilePath = path
		rec.FileSize = size
		if rec.Duration == nil {
			rec.Duration = models.IntPtr(s.probeDuration(ctx, log, path))
		}
	}

	s.publish(ctx, &models.Event{
		Type:    models.EventVideoAcquired,
		VideoID: videoID,
		Data:    map[string]interface{}{"path": path, "stale": result == "stale"},
	})
	return rec, false, nil
}

// probeDuration returns the source length rounded up to whole seconds, or 0
// when unknown.
func (s *Service) probeDuration(ctx context.Context, log *logging.Logger, path string) int {
	if s.prober == nil {
		return 0
	}
	md, err := s.prober.Probe(ctx, path)
	if err != nil {
		log.WarnWithErr("Could not probe source duration", err)
		return 0
	}
	return md.CeilSeconds()
}

// LookupClip finds a generated clip by ID
func (s *Service) LookupClip(ctx context.Context, clipID string) (*models.ClipArtifact, error) {
	if _, err := uuid.Parse(clipID); err != nil {
		return nil, models.NewError(models.ErrInvalidInput, "clipper.LookupClip", "malformed clip id")
	}

	if s.index != nil {
		clip, err := s.index.GetClip(ctx, clipID)
		if err != nil {
			s.logger.WithClipID(clipID).WarnWithErr("Clip index lookup failed", err)
		} else if clip != nil && fileutil.Exists(clip.Path) {
			return clip, nil
		}
	}

	path := filepath.Join(s.cfg.WorkDir, "clip_"+clipID+".mp4")
	if !fileutil.Exists(path) {
		return nil, nil
	}
	return &models.ClipArtifact{ID: clipID, Path: path, Size: fileutil.SizeOf(path)}, nil
}

// ListCached returns active download records
func (s *Service) ListCached(ctx context.Context, limit, offset int) ([]*models.VideoDownload, error) {
	return s.store.ListActiveDownloads(ctx, limit, offset)
}

// Evict deactivates the record for videoID and deletes its source file
func (s *Service) Evict(ctx context.Context, videoID string) (bool, error) {
	unlock, err := s.locker.Lock(ctx, "video:"+videoID)
	if err != nil {
		return false, err
	}
	defer unlock()

	rec, err := s.store.GetActiveDownload(ctx, videoID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	if err := s.store.DeactivateDownload(ctx, videoID); err != nil {
		return false, err
	}
	fileutil.Delete(rec.FilePath)
	s.logger.WithVideoID(videoID).LogCacheEvent(videoID, "evicted", rec.FilePath)
	return true, nil
}

// Health checks the download store
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

// ClipExpired is a cleanup.ExpireFunc that announces the deletion
func (s *Service) ClipExpired(ctx context.Context, clip *models.ClipArtifact) {
	s.publish(ctx, &models.Event{
		Type:    models.EventClipExpired,
		VideoID: clip.VideoID,
		ClipID:  clip.ID,
	})
}

func (s *Service) publish(ctx context.Context, evt *models.Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.WithVideoID(evt.VideoID).WarnWithErr("Failed to publish event "+evt.Type, err)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrInvalidTimeRange):
		return "invalid_time_range"
	case errors.Is(err, models.ErrAcquisitionFailed):
		return "acquisition_failed"
	case errors.Is(err, models.ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, models.ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
