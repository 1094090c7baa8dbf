package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/process"
)

// Prober wraps ffprobe
type Prober struct {
	ffprobePath string
	runner      process.Runner
}

// NewProber creates a Prober
func NewProber(ffprobePath string, runner process.Runner) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffprobePath: ffprobePath, runner: runner}
}

// Metadata holds the subset of ffprobe output the pipeline uses
type Metadata struct {
	Format  FormatInfo   `json:"format"`
	Streams []StreamInfo `json:"streams"`
}

// FormatInfo holds container information
type FormatInfo struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// StreamInfo holds stream information
type StreamInfo struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// DurationSeconds returns the container duration, or 0 when unknown.
func (m *Metadata) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(m.Format.Duration, 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// CeilSeconds returns the container duration rounded up to whole seconds.
func (m *Metadata) CeilSeconds() int {
	return int(math.Ceil(m.DurationSeconds()))
}

// HasVideo reports whether any stream is a video stream.
func (m *Metadata) HasVideo() bool {
	for _, s := range m.Streams {
		if s.CodecType == "video" {
			return true
		}
	}
	return false
}

// Probe extracts container and stream metadata from a media file
func (p *Prober) Probe(ctx context.Context, path string) (*Metadata, error) {
	res, err := p.runner.Run(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	if !res.Success() {
		return nil, fmt.Errorf("ffprobe exited with status %d, stderr: %s", res.ExitCode, res.Stderr)
	}

	var md Metadata
	if err := json.Unmarshal([]byte(res.Stdout), &md); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &md, nil
}

// CountVideoPackets returns the number of packets in the first video stream.
func (p *Prober) CountVideoPackets(ctx context.Context, path string) (int, error) {
	res, err := p.runner.Run(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	if !res.Success() {
		return 0, fmt.Errorf("ffprobe exited with status %d, stderr: %s", res.ExitCode, res.Stderr)
	}

	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return 0, nil
	}
	// Multiple video streams are not selected, but tolerate trailing separators.
	n, err := strconv.Atoi(strings.TrimRight(strings.Fields(out)[0], ","))
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe packet count %q", out)
	}
	return n, nil
}
