package post

import (
	"errors"
	"testing"
	"time"
)

func TestParseScheduleTimeClockOnly(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.Local)
	got, err := ParseScheduleTime("14:30", now)
	if err != nil {
		t.Fatalf("ParseScheduleTime: %v", err)
	}
	want := time.Date(2026, 3, 14, 14, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseScheduleTimeDateOnly(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.Local)
	got, err := ParseScheduleTime("2026-04-01", now)
	if err != nil {
		t.Fatalf("ParseScheduleTime: %v", err)
	}
	want := time.Date(2026, 4, 1, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("date-only should default to 09:00: got %v, want %v", got, want)
	}
}

func TestParseScheduleTimeFull(t *testing.T) {
	got, err := ParseScheduleTime("2026-04-01 18:45", time.Now())
	if err != nil {
		t.Fatalf("ParseScheduleTime: %v", err)
	}
	want := time.Date(2026, 4, 1, 18, 45, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseScheduleTimeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "soon", "25:99", "2026-13-40", "2026-04-01T18:45:00"} {
		if _, err := ParseScheduleTime(raw, time.Now()); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Fatalf("ParseScheduleTime(%q): err = %v, want ErrInvalidTimeFormat", raw, err)
		}
	}
}

func TestQuickTime(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.Local)

	cases := []struct {
		when string
		want time.Time
	}{
		{"now", now.Add(time.Minute)},
		{"in-1h", now.Add(time.Hour)},
		{"in-2h", now.Add(2 * time.Hour)},
		{"tomorrow", time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local)},
		{"next-week", time.Date(2026, 3, 21, 9, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		got, err := QuickTime(tc.when, now)
		if err != nil {
			t.Fatalf("QuickTime(%q): %v", tc.when, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("QuickTime(%q) = %v, want %v", tc.when, got, tc.want)
		}
	}

	if _, err := QuickTime("whenever", now); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Fatalf("unknown shortcut: err = %v, want ErrInvalidTimeFormat", err)
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "less than 1 minute"},
		{time.Minute, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{90 * time.Minute, "1 hour, 30 minutes"},
		{25 * time.Hour, "1 day, 1 hour"},
		{50 * time.Hour, "2 days, 2 hours"},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.d); got != tc.want {
			t.Fatalf("FormatRemaining(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
