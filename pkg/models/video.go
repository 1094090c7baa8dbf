package models

import (
	"time"
)

// VideoDownload is the cache record for a source video that has been fetched
// to local disk. At most one active record exists per VideoID.
type VideoDownload struct {
	ID           int64     `json:"id" db:"id"`
	VideoID      string    `json:"video_id" db:"video_id"`
	FilePath     string    `json:"file_path" db:"file_path"`
	FileSize     *int64    `json:"file_size,omitempty" db:"file_size"`
	Duration     *int      `json:"duration,omitempty" db:"duration"`
	DownloadedAt time.Time `json:"downloaded_at" db:"downloaded_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// KnownDuration returns the recorded source duration in seconds, or 0 when unknown.
func (d *VideoDownload) KnownDuration() float64 {
	if d == nil || d.Duration == nil {
		return 0
	}
	return float64(*d.Duration)
}

// Int64Ptr returns a pointer to v, or nil when v is not positive.
func Int64Ptr(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}

// IntPtr returns a pointer to v, or nil when v is not positive.
func IntPtr(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
