package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

const pgUniqueViolation = "23505"

const selectDownloadColumns = `id, video_id, file_path, file_size, duration, downloaded_at, is_active`

// PostgresStore is the DownloadStore backed by PostgreSQL
type PostgresStore struct {
	db     *DB
	logger *logging.Logger
}

// NewPostgresStore wraps db and applies pending migrations.
func NewPostgresStore(ctx context.Context, db *DB, logger *logging.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := runMigrations(ctx, db, "postgres"); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

// GetActiveDownload retrieves the active download for a video
func (s *PostgresStore) GetActiveDownload(ctx context.Context, videoID string) (d *models.VideoDownload, err error) {
	defer func(start time.Time) { observe(s.logger, "get_active_download", start, err) }(time.Now())

	query := `
		SELECT ` + selectDownloadColumns + `
		FROM video_downloads
		WHERE video_id = $1 AND is_active
	`

	var rec models.VideoDownload
	err = s.db.Pool.QueryRow(ctx, query, videoID).Scan(
		&rec.ID, &rec.VideoID, &rec.FilePath, &rec.FileSize, &rec.Duration,
		&rec.DownloadedAt, &rec.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("get active download", err)
	}
	return &rec, nil
}

// CreateDownload records a freshly downloaded source video
func (s *PostgresStore) CreateDownload(ctx context.Context, videoID, filePath string, fileSize *int64, duration *int) (d *models.VideoDownload, err error) {
	defer func(start time.Time) { observe(s.logger, "create_download", start, err) }(time.Now())

	query := `
		INSERT INTO video_downloads (video_id, file_path, file_size, duration, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, downloaded_at
	`

	rec := &models.VideoDownload{
		VideoID:  videoID,
		FilePath: filePath,
		FileSize: fileSize,
		Duration: duration,
		IsActive: true,
	}
	err = s.db.Pool.QueryRow(ctx, query, videoID, filePath, fileSize, duration).Scan(&rec.ID, &rec.DownloadedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, duplicateError("create download", videoID)
		}
		return nil, storageError("create download", err)
	}
	return rec, nil
}

// UpdateDownloadPath points the active record at a new file
func (s *PostgresStore) UpdateDownloadPath(ctx context.Context, videoID, filePath string, fileSize *int64) (err error) {
	defer func(start time.Time) { observe(s.logger, "update_download_path", start, err) }(time.Now())

	query := `
		UPDATE video_downloads
		SET file_path = $2, file_size = $3, downloaded_at = NOW()
		WHERE video_id = $1 AND is_active
	`

	tag, err := s.db.Pool.Exec(ctx, query, videoID, filePath, fileSize)
	if err != nil {
		return storageError("update download path", err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundError("update download path", videoID)
	}
	return nil
}

// DeactivateDownload soft-deletes the active record for a video
func (s *PostgresStore) DeactivateDownload(ctx context.Context, videoID string) (err error) {
	defer func(start time.Time) { observe(s.logger, "deactivate_download", start, err) }(time.Now())

	_, err = s.db.Pool.Exec(ctx, `UPDATE video_downloads SET is_active = FALSE WHERE video_id = $1 AND is_active`, videoID)
	if err != nil {
		return storageError("deactivate download", err)
	}
	return nil
}

// ListActiveDownloads retrieves active downloads with pagination
func (s *PostgresStore) ListActiveDownloads(ctx context.Context, limit, offset int) (out []*models.VideoDownload, err error) {
	defer func(start time.Time) { observe(s.logger, "list_active_downloads", start, err) }(time.Now())

	query := `
		SELECT ` + selectDownloadColumns + `
		FROM video_downloads
		WHERE is_active
		ORDER BY downloaded_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, storageError("list active downloads", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.VideoDownload
		if err = rows.Scan(
			&rec.ID, &rec.VideoID, &rec.FilePath, &rec.FileSize, &rec.Duration,
			&rec.DownloadedAt, &rec.IsActive,
		); err != nil {
			return nil, storageError("list active downloads", err)
		}
		out = append(out, &rec)
	}
	if err = rows.Err(); err != nil {
		return nil, storageError("list active downloads", err)
	}
	return out, nil
}

// Health checks if the database is healthy
func (s *PostgresStore) Health(ctx context.Context) error {
	if err := s.db.Health(ctx); err != nil {
		return storageError("health", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
