// Package sanitize validates free text and numeric fields before they reach
// the store. Statements are always parameterized; this package only decides
// what is acceptable to bind.
package sanitize

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/timefmt"
)

const DefaultMaxLength = 255

type Sanitizer struct {
	MaxLength int
}

func New(maxLength int) Sanitizer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return Sanitizer{MaxLength: maxLength}
}

// Text trims value and rejects empty, over-long or control-character input.
func (s Sanitizer) Text(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.Invalid(field, "must not be empty")
	}
	if !utf8.ValidString(value) {
		return "", apperrors.Invalid(field, "must be valid UTF-8")
	}
	max := s.MaxLength
	if max <= 0 {
		max = DefaultMaxLength
	}
	if n := utf8.RuneCountInString(value); n > max {
		return "", apperrors.Invalid(field, fmt.Sprintf("must be at most %d characters, got %d", max, n))
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return "", apperrors.Invalid(field, "must not contain control characters")
		}
	}
	return value, nil
}

// ID accepts zero (meaning "none") and positive identifiers.
func (s Sanitizer) ID(field string, id int64) error {
	if id < 0 {
		return apperrors.Invalid(field, "must not be negative")
	}
	return nil
}

func (s Sanitizer) Seconds(field string, seconds int64) error {
	if seconds < 0 {
		return apperrors.Invalid(field, "must not be negative")
	}
	return nil
}

// Timestamp returns value in the canonical persisted layout.
func (s Sanitizer) Timestamp(field, value string) (string, error) {
	normalized, err := timefmt.NormalizeTimestamp(value)
	if err != nil {
		return "", apperrors.Invalid(field, err.Error())
	}
	return normalized, nil
}
