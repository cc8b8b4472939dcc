package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Define the regular expression to capture "N [units]".
var lookbackDurationRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?$`)

// ParseLookbackDuration converts strings like "90 days" or "720h" into a time.Duration.
// Go duration syntax is tried first, then the human-readable form.
func ParseLookbackDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if duration, err := time.ParseDuration(s); err == nil {
		if duration <= 0 {
			return 0, errors.New("lookback must be positive")
		}
		return duration, nil
	}

	s = strings.ToLower(s)
	matches := lookbackDurationRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid lookback duration format: %s", s)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid lookback value %q: %w", matches[1], err)
	}

	const day = 24 * time.Hour
	var unit time.Duration
	switch matches[2] {
	case "year":
		unit = 365 * day // approximation
	case "month":
		unit = 30 * day // approximation
	case "week":
		unit = 7 * day
	case "day":
		unit = day
	case "hour":
		unit = time.Hour
	case "minute":
		unit = time.Minute
	}

	total := time.Duration(value) * unit
	if total <= 0 {
		return 0, errors.New("zero duration is not useful")
	}
	return total, nil
}

// DurationDays returns the duration as fractional days.
func DurationDays(d time.Duration) float64 {
	return d.Hours() / 24
}
