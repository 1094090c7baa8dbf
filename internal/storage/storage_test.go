package storage

import (
	"testing"

	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

func TestGetContentType(t *testing.T) {
	tests := []struct {
		filePath string
		wantType string
	}{
		{"clip.mp4", "video/mp4"},
		{"source.mkv", "video/x-matroska"},
		{"source.webm", "video/webm"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			contentType := getContentType(tt.filePath)
			if contentType != tt.wantType {
				t.Errorf("getContentType(%q) = %q, want %q", tt.filePath, contentType, tt.wantType)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name string
		clip *models.ClipArtifact
		want string
	}{
		{
			name: "with video",
			clip: &models.ClipArtifact{ID: "c1", VideoID: "dQw4w9WgXcQ", Path: "/uploads/clip_c1.mp4"},
			want: "clips/dQw4w9WgXcQ/c1.mp4",
		},
		{
			name: "without video",
			clip: &models.ClipArtifact{ID: "c2", Path: "/uploads/clip_c2.mp4"},
			want: "clips/unknown/c2.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectKey(tt.clip); got != tt.want {
				t.Errorf("ObjectKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
