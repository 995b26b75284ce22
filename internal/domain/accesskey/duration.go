package accesskey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseDurationSpec parses a human-entered duration token of the form
// <integer><unit> where unit is m (minutes), h (hours) or d (days).
// Anything else fails with ErrInvalidDuration.
func ParseDurationSpec(spec string) (time.Duration, error) {
	match := durationPattern.FindStringSubmatch(strings.TrimSpace(spec))
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, spec)
	}

	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, spec)
	}

	switch match[2] {
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, spec)
	}
}
