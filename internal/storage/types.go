package storage

import (
	"time"

	"github.com/cockroachdb/errors"
)

var ErrDisabled = errors.New("history storage disabled")

// Config configures the outcome history store.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Outcome records one fired job's result.
// Keep it compact and schema-stable.
type Outcome struct {
	At     time.Time
	JobID  string
	Topic  string
	Status string
	Detail string
	TookMS int64
}
