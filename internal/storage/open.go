// Package storage keeps a queryable history of fire outcomes, one row per
// executed job, separate from the live job document. It is advisory: the
// scheduler works identically with history disabled.
package storage

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"postpilot/pkg/logx"
)

// Store is the minimal persistence API used by the scheduler wiring.
type Store interface {
	AppendOutcome(ctx context.Context, o Outcome) error
	RecentOutcomes(ctx context.Context, limit int) ([]Outcome, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.Newf("unknown history driver: %s", cfg.Driver)
	}
}
