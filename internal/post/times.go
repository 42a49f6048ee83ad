package post

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidTimeFormat means the schedule time string could not be parsed.
	ErrInvalidTimeFormat = errors.New("invalid schedule time format")
	// ErrInvalidTime means the time parsed fine but is not in the future.
	ErrInvalidTime = errors.New("schedule time must be in the future")
)

// ParseScheduleTime parses the user-facing schedule time formats:
//
//   - "HH:MM"            today at that time
//   - "YYYY-MM-DD"       that day at 09:00
//   - "YYYY-MM-DD HH:MM" exact
//
// The result is interpreted on the local clock. Future-ness is not checked
// here; callers validate against their own clock reading.
func ParseScheduleTime(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.Contains(s, ":") && len(s) <= 5:
		t, err := time.ParseInLocation("15:04", s, time.Local)
		if err != nil {
			return time.Time{}, errors.Wrapf(ErrInvalidTimeFormat, "%q", raw)
		}
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local), nil
	case len(s) > 10:
		t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
		if err != nil {
			return time.Time{}, errors.Wrapf(ErrInvalidTimeFormat, "%q", raw)
		}
		return t, nil
	default:
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return time.Time{}, errors.Wrapf(ErrInvalidTimeFormat, "%q", raw)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, time.Local), nil
	}
}

// QuickTime maps the shortcut names from the quick command to a concrete time.
func QuickTime(when string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(when)) {
	case "now":
		return now.Add(time.Minute), nil
	case "in-1h":
		return now.Add(time.Hour), nil
	case "in-2h":
		return now.Add(2 * time.Hour), nil
	case "tomorrow":
		d := now.AddDate(0, 0, 1)
		return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, time.Local), nil
	case "next-week":
		d := now.AddDate(0, 0, 7)
		return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, time.Local), nil
	default:
		return time.Time{}, errors.Wrapf(ErrInvalidTimeFormat, "unknown shortcut %q", when)
	}
}

// FormatRemaining renders the time until t in the coarse style used by list output.
func FormatRemaining(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		days := int(d / (24 * time.Hour))
		hours := int(d % (24 * time.Hour) / time.Hour)
		return plural(days, "day") + ", " + plural(hours, "hour")
	case d >= time.Hour:
		hours := int(d / time.Hour)
		mins := int(d % time.Hour / time.Minute)
		return plural(hours, "hour") + ", " + plural(mins, "minute")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return "less than 1 minute"
	}
}

func plural(n int, unit string) string {
	s := ""
	if n != 1 {
		s = "s"
	}
	return strconv.Itoa(n) + " " + unit + s
}
