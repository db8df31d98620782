package schedule

import (
	"testing"
	"time"
)

func TestNextPostTime(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Friday 2026-10-16 07:10 local.
	now := time.Date(2026, 10, 16, 7, 10, 0, 0, denver)

	tests := []struct {
		expr string
		want time.Time
	}{
		{expr: "30 8 * * 1-5", want: time.Date(2026, 10, 16, 8, 30, 0, 0, denver)},
		{expr: "0 7 * * 1-5", want: time.Date(2026, 10, 19, 7, 0, 0, 0, denver)},
		{expr: "0 9 * * 1", want: time.Date(2026, 10, 19, 9, 0, 0, 0, denver)},
		{expr: " 15 7 * * * ", want: time.Date(2026, 10, 16, 7, 15, 0, 0, denver)},
	}
	for _, tt := range tests {
		got, err := NextPostTime(tt.expr, now)
		if err != nil {
			t.Fatalf("NextPostTime(%q) error: %v", tt.expr, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("NextPostTime(%q) = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestNextPostTimeBlankMeansImmediate(t *testing.T) {
	got, err := NextPostTime("  ", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero time, got %s", got)
	}
}

func TestNextPostTimeRejectsInvalid(t *testing.T) {
	for _, expr := range []string{"every morning", "0 9 * *", "0 0 9 * * 1"} {
		if _, err := NextPostTime(expr, time.Now()); err == nil {
			t.Fatalf("expected error for %q", expr)
		}
		if err := Validate(expr); err == nil {
			t.Fatalf("expected Validate error for %q", expr)
		}
	}
	if err := Validate(""); err != nil {
		t.Fatalf("blank expression should validate: %v", err)
	}
}
