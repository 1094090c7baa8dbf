package database

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

// DownloadStore persists the download cache: one active record per video.
//
// Every backend failure is returned wrapping models.ErrStorage.
type DownloadStore interface {
	// GetActiveDownload returns the active record for videoID, or nil, nil when absent.
	GetActiveDownload(ctx context.Context, videoID string) (*models.VideoDownload, error)
	// CreateDownload inserts an active record. An existing active record yields
	// models.ErrDuplicateRecord.
	CreateDownload(ctx context.Context, videoID, filePath string, fileSize *int64, duration *int) (*models.VideoDownload, error)
	// UpdateDownloadPath repoints the active record at a re-downloaded file.
	UpdateDownloadPath(ctx context.Context, videoID, filePath string, fileSize *int64) error
	// DeactivateDownload soft-deletes the active record, if any.
	DeactivateDownload(ctx context.Context, videoID string) error
	// ListActiveDownloads returns active records, newest first.
	ListActiveDownloads(ctx context.Context, limit, offset int) ([]*models.VideoDownload, error)
	Health(ctx context.Context) error
	Close() error
}

func storageError(op string, err error) error {
	return models.NewError(models.ErrStorage, op, "").Wrap(err)
}

func duplicateError(op, videoID string) error {
	e := models.NewError(models.ErrDuplicateRecord, op, "active record exists for "+videoID)
	return e.Wrap(models.ErrStorage)
}

func notFoundError(op, videoID string) error {
	return models.NewError(models.ErrStorage, op, "no active record for "+videoID)
}

// observe records metrics and a debug log line for one store call.
func observe(logger *logging.Logger, op string, start time.Time, err error) {
	d := time.Since(start)
	metrics.RecordDatabaseOperation(op, metrics.Status(err), d.Seconds())
	logger.LogDatabaseOperation(op, d, err)
}
