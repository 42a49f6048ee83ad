// Package trigger maintains the set of armed single-fire timers, one per
// scheduled job. The armed set is a cache derived from the job store and is
// reconciled from it; it is never authoritative.
package trigger

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"postpilot/pkg/logx"
)

// ErrAlreadyDue means the requested fire time is not in the future. The
// caller decides whether to expire the job or fire it out-of-band.
var ErrAlreadyDue = errors.New("trigger time already due")

// Engine holds armed timers keyed by job id.
//
// Callbacks run on the timer goroutine and may overlap with each other and
// with whatever thread calls Arm/Disarm. The engine's own bookkeeping lock
// is independent of any store lock; callbacks are invoked with no engine
// lock held.
type Engine struct {
	log logx.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	fireAt map[string]time.Time
	// ver holds each id's current arming, numbered from an engine-wide
	// sequence so a number is never reused. A replaced or disarmed timer's
	// late callback recognizes it is stale and returns without firing; a
	// per-id counter would restart after disarm and let the stale callback
	// through.
	ver map[string]uint64
	seq uint64
}

func New(log logx.Logger) *Engine {
	return &Engine{
		log:    log,
		timers: map[string]*time.Timer{},
		fireAt: map[string]time.Time{},
		ver:    map[string]uint64{},
	}
}

// Arm schedules exactly one future invocation of fire. Re-arming an id
// replaces the prior timer; there is never a duplicate fire for one id.
func (e *Engine) Arm(id string, fireAt time.Time, fire func()) error {
	now := time.Now()
	if !fireAt.After(now) {
		return errors.Wrapf(ErrAlreadyDue, "job %s at %s", id, fireAt.Format("2006-01-02 15:04:05"))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[id]; ok {
		_ = t.Stop()
	}
	e.seq++
	ver := e.seq
	e.ver[id] = ver
	e.fireAt[id] = fireAt

	localVer := ver
	e.timers[id] = time.AfterFunc(time.Until(fireAt), func() {
		// A replace or disarm may have raced this callback; fire only if we
		// are still the current arming.
		e.mu.Lock()
		if e.ver[id] != localVer {
			e.mu.Unlock()
			return
		}
		delete(e.timers, id)
		delete(e.fireAt, id)
		delete(e.ver, id)
		e.mu.Unlock()

		fire()
	})

	e.log.Debug("timer armed", logx.String("job", id), logx.Time("fire_at", fireAt))
	return nil
}

// Disarm removes a pending timer. A missing id is a no-op, not an error:
// cancel requests race with just-fired timers by design.
func (e *Engine) Disarm(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[id]
	if !ok {
		return false
	}
	_ = t.Stop()
	delete(e.timers, id)
	delete(e.fireAt, id)
	delete(e.ver, id)
	e.log.Debug("timer disarmed", logx.String("job", id))
	return true
}

// ActiveIDs snapshots the currently armed ids for reconciliation diffing.
func (e *Engine) ActiveIDs() map[string]struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make(map[string]struct{}, len(e.timers))
	for id := range e.timers {
		ids[id] = struct{}{}
	}
	return ids
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// Next returns the id and fire time of the earliest armed timer.
func (e *Engine) Next() (string, time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var (
		bestID string
		bestAt time.Time
	)
	for id, at := range e.fireAt {
		if bestID == "" || at.Before(bestAt) {
			bestID, bestAt = id, at
		}
	}
	return bestID, bestAt, bestID != ""
}

// StopAll stops every pending timer. Callbacks already started keep running.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.timers {
		_ = t.Stop()
		delete(e.timers, id)
		delete(e.fireAt, id)
		delete(e.ver, id)
	}
}
