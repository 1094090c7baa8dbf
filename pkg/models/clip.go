package models

import "time"

// TimeRange is a validated [Start, End) window expressed in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// Extraction methods recorded on a ClipArtifact
const (
	ExtractMethodCopy     = "stream_copy"
	ExtractMethodReencode = "reencode"
)

// ClipArtifact is a generated clip file. It is never stored in the download
// cache; the caller owns its deletion after the retention window.
type ClipArtifact struct {
	ID        string    `json:"clip_id"`
	VideoID   string    `json:"video_id,omitempty"`
	Path      string    `json:"path"`
	Size      int64     `json:"file_size"`
	Duration  float64   `json:"duration"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// ClipRequest is the body accepted by the clip endpoint
type ClipRequest struct {
	URL       string `json:"url" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// ClipResult is what the pipeline hands back for a completed clip request
type ClipResult struct {
	VideoID  string        `json:"video_id"`
	Clip     *ClipArtifact `json:"clip"`
	CacheHit bool          `json:"cache_hit"`
	URL      string        `json:"url,omitempty"`
}

// ClipResponse is the body returned by the clip endpoint
type ClipResponse struct {
	Message     string  `json:"message"`
	VideoID     string  `json:"video_id"`
	ClipID      string  `json:"clip_id"`
	Duration    float64 `json:"duration,omitempty"`
	FileSize    int64   `json:"file_size,omitempty"`
	DownloadURL string  `json:"download_url"`
	CacheHit    bool    `json:"cache_hit"`
}
