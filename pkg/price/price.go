// Package price parses human-entered price shorthand such as "100",
// "1.5k", "2m" or "1b" into an integer amount of minor currency units.
package price

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalid indicates input that does not match the grammar or a
	// non-positive value.
	ErrInvalid = errors.New("invalid price")

	// ErrOverflow indicates a value beyond the representable maximum.
	// Distinct from ErrInvalid so callers can report it separately.
	ErrOverflow = errors.New("price too large")
)

// Allows decimal numbers like 1.5k; suffix is case-insensitive.
var pricePattern = regexp.MustCompile(`^(\d*\.?\d+)([kKmMbB]?)$`)

// Parse converts a price string into an integer amount. The fractional
// part left after applying the suffix multiplier is truncated, so
// "1.53k" parses to 1530.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalid
	}

	m := pricePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalid
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, ErrInvalid
	}
	if value <= 0 {
		return 0, ErrInvalid
	}

	switch strings.ToLower(m[2]) {
	case "k":
		value *= 1_000
	case "m":
		value *= 1_000_000
	case "b":
		value *= 1_000_000_000
	}

	if value >= math.MaxInt64 {
		return 0, ErrOverflow
	}

	return int64(math.Floor(value)), nil
}
