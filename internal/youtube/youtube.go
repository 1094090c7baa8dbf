// Package youtube extracts canonical video identifiers from YouTube URLs.
package youtube

import (
	"regexp"
	"strings"

	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

const idChars = `[0-9A-Za-z_-]`

// videoIDPatterns are tried in order; the first capture wins.
// Each capture must not be followed by another identifier character.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=(` + idChars + `{11})(?:[^0-9A-Za-z_-]|$)`),
	regexp.MustCompile(`/embed/(` + idChars + `{11})(?:[^0-9A-Za-z_-]|$)`),
	regexp.MustCompile(`/(?:v|shorts|live)/(` + idChars + `{11})(?:[^0-9A-Za-z_-]|$)`),
	regexp.MustCompile(`youtu\.be/(` + idChars + `{11})(?:[^0-9A-Za-z_-]|$)`),
}

var (
	bareIDPattern = regexp.MustCompile(`^` + idChars + `{11}$`)

	// urlPattern is the request-level shape check for accepted hosts.
	urlPattern = regexp.MustCompile(`^(https?://)?(www\.|m\.)?(youtube\.com|youtu\.be|youtube-nocookie\.com)/`)
)

// ExtractVideoID returns the 11-character video identifier carried by url.
// A bare identifier is accepted as-is.
func ExtractVideoID(url string) (string, error) {
	s := strings.TrimSpace(url)
	if s == "" {
		return "", models.NewError(models.ErrInvalidInput, "extract video id", "empty url")
	}
	if bareIDPattern.MatchString(s) {
		return s, nil
	}
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(s); len(m) == 2 {
			return m[1], nil
		}
	}
	return "", models.NewError(models.ErrInvalidInput, "extract video id", "could not extract video id from url: "+s)
}

// ValidateURL checks that url points at a supported YouTube host and carries an identifier.
func ValidateURL(url string) error {
	s := strings.TrimSpace(url)
	if !urlPattern.MatchString(s) {
		return models.NewError(models.ErrInvalidInput, "validate url", "unsupported host: "+s)
	}
	_, err := ExtractVideoID(s)
	return err
}

// CanonicalURL returns the watch URL for a video identifier.
func CanonicalURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
