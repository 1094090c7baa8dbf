package acquire

import (
	"fmt"
	"path/filepath"
	"strconv"
)

const (
	bestFormat  = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	worstFormat = "worst[ext=mp4]/worst"

	referer        = "https://www.youtube.com/"
	acceptLanguage = "Accept-Language:en-US,en;q=0.9"
	acceptHeader   = "Accept:text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
)

// Pacing is the randomized delay yt-dlp waits between requests, in seconds.
type Pacing struct {
	Min int
	Max int
}

// Strategy is one step of the download fallback chain.
type Strategy struct {
	Name        string
	AuthContext string // browser to read cookies from; empty means anonymous
	Format      string
	Pacing      Pacing
	Headers     bool // send referer and accept headers
}

// Args builds the yt-dlp argument list for downloading url into dir as <id>.<ext>.
func (s Strategy) Args(dir, id, url, userAgent string) []string {
	args := []string{
		url,
		"-f", s.Format,
		"-o", filepath.Join(dir, id+".%(ext)s"),
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--no-check-certificates",
	}
	if s.AuthContext != "" {
		args = append(args, "--cookies-from-browser", s.AuthContext)
	}
	if userAgent != "" {
		args = append(args, "--user-agent", userAgent)
	}
	if s.Headers {
		args = append(args,
			"--referer", referer,
			"--add-header", acceptLanguage,
			"--add-header", acceptHeader,
		)
	}
	if s.Pacing.Max > 0 {
		args = append(args,
			"--sleep-interval", strconv.Itoa(s.Pacing.Min),
			"--max-sleep-interval", strconv.Itoa(s.Pacing.Max),
		)
	}
	return append(args, "--no-warnings")
}

// Primary returns the first strategy of the chain.
func (c Config) Primary() Strategy {
	return Strategy{
		Name:        "primary",
		AuthContext: c.PrimaryAuthContext,
		Format:      bestFormat,
		Pacing:      c.PrimaryPacing,
		Headers:     true,
	}
}

// Fallbacks returns one strategy per alternate auth context, in declared order.
func (c Config) Fallbacks() []Strategy {
	out := make([]Strategy, 0, len(c.FallbackAuthContexts))
	for _, browser := range c.FallbackAuthContexts {
		out = append(out, Strategy{
			Name:        fmt.Sprintf("fallback:%s", browser),
			AuthContext: browser,
			Format:      bestFormat,
			Pacing:      c.FallbackPacing,
			Headers:     true,
		})
	}
	return out
}

// LastResort returns the anonymous lowest-quality strategy.
func (c Config) LastResort() Strategy {
	return Strategy{
		Name:   "last_resort",
		Format: worstFormat,
		Pacing: c.LastResortPacing,
	}
}
