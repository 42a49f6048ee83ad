package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// parseDuration reads one duration field ("30s", "5m"). Empty or zero
// means unset and yields def; negatives are rejected.
func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: invalid duration %q", key, raw)
	}
	if d < 0 {
		return 0, errors.Newf("%s: duration must be >= 0", key)
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
