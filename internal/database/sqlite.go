package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/fileutil"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

// sqliteTimeLayout is fixed-width so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is the DownloadStore backed by a local SQLite file
type SQLiteStore struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
}

// OpenSQLite opens or creates the database at path and applies pending migrations.
// Parent directories are created if they don't exist.
func OpenSQLite(ctx context.Context, path string, logger *logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if path != ":memory:" {
		if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger, now: time.Now}
	if err := runMigrations(ctx, s, "sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) ensureVersionTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`)
	return err
}

func (s *SQLiteStore) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (s *SQLiteStore) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}

// GetActiveDownload retrieves the active download for a video
func (s *SQLiteStore) GetActiveDownload(ctx context.Context, videoID string) (d *models.VideoDownload, err error) {
	defer func(start time.Time) { observe(s.logger, "get_active_download", start, err) }(time.Now())

	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectDownloadColumns+`
		FROM video_downloads
		WHERE video_id = ? AND is_active = 1
	`, videoID)

	d, err = scanSQLiteDownload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("get active download", err)
	}
	return d, nil
}

// CreateDownload records a freshly downloaded source video
func (s *SQLiteStore) CreateDownload(ctx context.Context, videoID, filePath string, fileSize *int64, duration *int) (d *models.VideoDownload, err error) {
	defer func(start time.Time) { observe(s.logger, "create_download", start, err) }(time.Now())

	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO video_downloads (video_id, file_path, file_size, duration, downloaded_at, is_active)
		VALUES (?, ?, ?, ?, ?, 1)
	`, videoID, filePath, fileSize, duration, now.Format(sqliteTimeLayout))
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, duplicateError("create download", videoID)
		}
		return nil, storageError("create download", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageError("create download", err)
	}
	return &models.VideoDownload{
		ID:           id,
		VideoID:      videoID,
		FilePath:     filePath,
		FileSize:     fileSize,
		Duration:     duration,
		DownloadedAt: now,
		IsActive:     true,
	}, nil
}

// UpdateDownloadPath points the active record at a new file
func (s *SQLiteStore) UpdateDownloadPath(ctx context.Context, videoID, filePath string, fileSize *int64) (err error) {
	defer func(start time.Time) { observe(s.logger, "update_download_path", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `
		UPDATE video_downloads
		SET file_path = ?, file_size = ?, downloaded_at = ?
		WHERE video_id = ? AND is_active = 1
	`, filePath, fileSize, s.now().UTC().Format(sqliteTimeLayout), videoID)
	if err != nil {
		return storageError("update download path", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError("update download path", err)
	}
	if n == 0 {
		return notFoundError("update download path", videoID)
	}
	return nil
}

// DeactivateDownload soft-deletes the active record for a video
func (s *SQLiteStore) DeactivateDownload(ctx context.Context, videoID string) (err error) {
	defer func(start time.Time) { observe(s.logger, "deactivate_download", start, err) }(time.Now())

	_, err = s.db.ExecContext(ctx, `UPDATE video_downloads SET is_active = 0 WHERE video_id = ? AND is_active = 1`, videoID)
	if err != nil {
		return storageError("deactivate download", err)
	}
	return nil
}

// ListActiveDownloads retrieves active downloads with pagination
func (s *SQLiteStore) ListActiveDownloads(ctx context.Context, limit, offset int) (out []*models.VideoDownload, err error) {
	defer func(start time.Time) { observe(s.logger, "list_active_downloads", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectDownloadColumns+`
		FROM video_downloads
		WHERE is_active = 1
		ORDER BY downloaded_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, storageError("list active downloads", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanSQLiteDownload(rows)
		if err != nil {
			return nil, storageError("list active downloads", err)
		}
		out = append(out, d)
	}
	if err = rows.Err(); err != nil {
		return nil, storageError("list active downloads", err)
	}
	return out, nil
}

// Health checks if the database is reachable
func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageError("health", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteDownload(row rowScanner) (*models.VideoDownload, error) {
	var (
		d          models.VideoDownload
		fileSize   sql.NullInt64
		duration   sql.NullInt64
		downloaded string
		active     int
	)
	if err := row.Scan(&d.ID, &d.VideoID, &d.FilePath, &fileSize, &duration, &downloaded, &active); err != nil {
		return nil, err
	}
	if fileSize.Valid {
		v := fileSize.Int64
		d.FileSize = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		d.Duration = &v
	}
	t, err := time.ParseInLocation(sqliteTimeLayout, downloaded, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse downloaded_at %q: %w", downloaded, err)
	}
	d.DownloadedAt = t
	d.IsActive = active == 1
	return &d, nil
}

func isSQLiteUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
