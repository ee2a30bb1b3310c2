package tools

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameRunes bounds free-text name arguments.
const MaxNameRunes = 100

// MaxTopM bounds the top_m argument.
const MaxTopM = 100

// ErrInvalidArgument marks argument validation failures.
var ErrInvalidArgument = errors.New("invalid argument")

// ValidateName trims s and checks it is a usable name: non-empty, at most
// MaxNameRunes runes, no control characters. ILIKE wildcards are allowed.
func ValidateName(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidArgument, field)
	}
	if n := utf8.RuneCountInString(s); n > MaxNameRunes {
		return "", fmt.Errorf("%w: %s is too long (%d > %d characters)", ErrInvalidArgument, field, n, MaxNameRunes)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %s contains control characters", ErrInvalidArgument, field)
		}
	}
	return s, nil
}

func requireInt(field string, v Int) (int, error) {
	if !v.Set {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
	}
	return v.V, nil
}

func validateTopM(v Int) (int, error) {
	n, err := requireInt("top_m", v)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > MaxTopM {
		return 0, fmt.Errorf("%w: top_m must be between 1 and %d", ErrInvalidArgument, MaxTopM)
	}
	return n, nil
}

func validateYearRange(start, end Int) (int, int, error) {
	s, err := requireInt("start_year", start)
	if err != nil {
		return 0, 0, err
	}
	e, err := requireInt("end_year", end)
	if err != nil {
		return 0, 0, err
	}
	if s > e {
		return 0, 0, fmt.Errorf("%w: start_year %d is after end_year %d", ErrInvalidArgument, s, e)
	}
	return s, e, nil
}
