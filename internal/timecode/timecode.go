// Package timecode converts between human time strings and second offsets
// and validates clip ranges.
package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

var (
	wholePart = regexp.MustCompile(`^\d+$`)
	finalPart = regexp.MustCompile(`^\d+(\.\d+)?$`)

	// requestFormat is the accepted shape for API time fields.
	requestFormat = regexp.MustCompile(`^(\d{1,2}:)?(\d{1,2}):(\d{2})(\.\d+)?$`)
)

// ToSeconds parses SS, MM:SS or HH:MM:SS, with optional fractional seconds on
// the final component. A leading '-' negates the whole value.
func ToSeconds(text string) (float64, error) {
	s := strings.TrimSpace(text)
	sign := 1.0
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, invalidTime(text, "too many ':' separators")
	}

	var total float64
	for i, p := range parts {
		last := i == len(parts)-1
		if last {
			if !finalPart.MatchString(p) {
				return 0, invalidTime(text, fmt.Sprintf("component %q is not a number", p))
			}
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return 0, invalidTime(text, err.Error())
			}
			total = total*60 + v
			break
		}
		if !wholePart.MatchString(p) {
			return 0, invalidTime(text, fmt.Sprintf("component %q is not a whole number", p))
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, invalidTime(text, err.Error())
		}
		total = total*60 + float64(v)
	}

	return sign * total, nil
}

// FromSeconds formats v as zero-padded HH:MM:SS.mmm, the form ffmpeg accepts for -ss and -t.
func FromSeconds(v float64) string {
	if v < 0 {
		return "-" + FromSeconds(-v)
	}
	ms := int64(math.Round(v * 1000))
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, ms)
}

// ValidRequestFormat reports whether s matches the HH:MM:SS / MM:SS[.fff] API shape.
func ValidRequestFormat(s string) bool {
	return requestFormat.MatchString(s)
}

// ParseRange parses start and end and validates the resulting range.
// maxDuration bounds end-start; sourceDuration, when positive, bounds end.
func ParseRange(start, end string, maxDuration, sourceDuration float64) (models.TimeRange, error) {
	s, err := ToSeconds(start)
	if err != nil {
		return models.TimeRange{}, err
	}
	e, err := ToSeconds(end)
	if err != nil {
		return models.TimeRange{}, err
	}
	r := models.TimeRange{Start: s, End: e}
	if err := Validate(r, maxDuration, sourceDuration); err != nil {
		return models.TimeRange{}, err
	}
	return r, nil
}

// Validate checks the TimeRange invariants and names the one that broke.
func Validate(r models.TimeRange, maxDuration, sourceDuration float64) error {
	switch {
	case r.Start < 0 || r.End < 0:
		return invalidRange("start and end must not be negative")
	case r.Duration() <= 0:
		return invalidRange("end time must be after start time")
	case maxDuration > 0 && r.Duration() > maxDuration:
		return invalidRange(fmt.Sprintf("clip duration %.3fs exceeds maximum of %gs", r.Duration(), maxDuration))
	case sourceDuration > 0 && r.End > sourceDuration:
		return invalidRange(fmt.Sprintf("end time %s exceeds source duration %s", FromSeconds(r.End), FromSeconds(sourceDuration)))
	}
	return nil
}

func invalidTime(text, reason string) error {
	return models.NewError(models.ErrInvalidInput, "parse time", fmt.Sprintf("invalid time format %q: %s", text, reason))
}

func invalidRange(reason string) error {
	return models.NewError(models.ErrInvalidTimeRange, "validate range", reason)
}
