package models

import "time"

// Event types published on the events exchange
const (
	EventVideoAcquired = "video.acquired"
	EventClipCreated   = "clip.created"
	EventClipExpired   = "clip.expired"
)

// Event is a notification about pipeline activity
type Event struct {
	Type      string                 `json:"type"`
	VideoID   string                 `json:"video_id"`
	ClipID    string                 `json:"clip_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
