// Package simtime reads and writes simulation clock values. Simulation time
// is a plain seconds-since-midnight float and may exceed 24 hours.
package simtime

import (
	"fmt"
	"strconv"
	"strings"
)

// #region constants

// EndOfDay is the canonical 24:00:00 boundary in seconds.
const EndOfDay = 24 * 3600.0

// Undefined marks an unset time value.
const Undefined = -1.0

// #endregion constants

// #region write

// Write formats seconds-since-midnight as HH:MM:SS. Hours are not wrapped at
// 24, matching the convention of activity schedules that run past midnight.
// Negative or undefined input formats as 00:00:00.
func Write(seconds float64) string {
	if seconds < 0 {
		return "00:00:00"
	}
	total := int(seconds + 0.5)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// #endregion write

// #region parse

// Parse converts an HH:MM:SS string back to seconds-since-midnight.
func Parse(value string) (float64, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("parse time %q: want HH:MM:SS", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse hours in %q: %w", value, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse minutes in %q: %w", value, err)
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("parse seconds in %q: %w", value, err)
	}
	if h < 0 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("parse time %q: component out of range", value)
	}
	return float64(h*3600 + m*60 + s), nil
}

// #endregion parse
