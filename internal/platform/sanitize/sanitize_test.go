package sanitize_test

import (
	"errors"
	"strings"
	"testing"

	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/sanitize"
)

func TestTextRules(t *testing.T) {
	t.Parallel()
	s := sanitize.New(10)

	got, err := s.Text("name", "  Design  ")
	if err != nil || got != "Design" {
		t.Fatalf("expected trimmed value, got %q (%v)", got, err)
	}
	for _, bad := range []string{"", "   ", strings.Repeat("x", 11), "a\x00b", "tab\there"} {
		if _, err := s.Text("name", bad); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %q, got %v", bad, err)
		}
	}
}

func TestNumericAndTimestampRules(t *testing.T) {
	t.Parallel()
	s := sanitize.New(0)
	if s.MaxLength != sanitize.DefaultMaxLength {
		t.Fatalf("expected default max length, got %d", s.MaxLength)
	}
	if err := s.ID("project", 0); err != nil {
		t.Fatalf("zero id means none: %v", err)
	}
	if err := s.ID("project", -1); err == nil {
		t.Fatalf("negative id must fail")
	}
	if err := s.Seconds("elapsed", -3); err == nil {
		t.Fatalf("negative seconds must fail")
	}
	ts, err := s.Timestamp("start", "2026-01-02T03:04:05")
	if err != nil || ts != "2026-01-02 03:04:05" {
		t.Fatalf("expected normalized timestamp, got %q (%v)", ts, err)
	}
	if _, err := s.Timestamp("start", "soon"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid timestamp, got %v", err)
	}
}
