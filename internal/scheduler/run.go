package scheduler

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"postpilot/internal/post"
	"postpilot/pkg/logx"
)

// Run is the daemon loop. It arms the current schedule, then reconciles
// on every poll tick (and on store-file events when watching is enabled)
// until ctx is cancelled, draining in-flight executions on the way out.
func (s *Service) Run(ctx context.Context) error {
	if err := s.LoadAndArm(); err != nil {
		return err
	}

	c := cron.New(cron.WithLocation(time.Local))
	if _, err := c.AddFunc("@every "+s.cfg.PollInterval.String(), s.Kick); err != nil {
		return err
	}
	if _, err := c.AddFunc("@every "+s.cfg.StatusInterval.String(), s.logStatus); err != nil {
		return err
	}
	c.Start()

	watchDone := make(chan struct{})
	if s.cfg.WatchStore {
		go func() {
			defer close(watchDone)
			s.watchStore(ctx)
		}()
	} else {
		close(watchDone)
	}

	s.log.Info("scheduler running",
		logx.String("store", s.store.Path()),
		logx.Duration("poll", s.cfg.PollInterval),
	)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-s.kick:
			s.reconcile()
		}
	}

	// Stop the cron scheduler and wait for any tick still inside Kick.
	<-c.Stop().Done()
	<-watchDone

	// Bounded drain of in-flight execution callbacks.
	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(s.cfg.ShutdownWait):
		s.log.Warn("shutdown wait elapsed with executions still running",
			logx.Duration("waited", s.cfg.ShutdownWait))
	}

	s.engine.StopAll()
	s.log.Info("scheduler stopped")
	return nil
}

// Kick requests a reconciliation pass. Safe from any goroutine; a pass
// already pending absorbs the request.
func (s *Service) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Service) logStatus() {
	n := s.engine.Len()
	if n == 0 {
		s.log.Info("no pending posts")
		return
	}
	id, at, ok := s.engine.Next()
	if !ok {
		s.log.Info("pending posts", logx.Int("count", n))
		return
	}
	s.log.Info("pending posts",
		logx.Int("count", n),
		logx.String("next", id),
		logx.Time("next_at", at),
		logx.String("in", post.FormatRemaining(time.Until(at))),
	)
}

// watchStore supplements polling with filesystem events on the store file.
// The watch is best effort; any failure just leaves polling in charge.
func (s *Service) watchStore(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn("store watch unavailable, relying on polling", logx.Err(err))
		return
	}
	defer w.Close()

	dir := filepath.Dir(s.store.Path())
	base := filepath.Base(s.store.Path())
	if err := w.Add(dir); err != nil {
		s.log.Warn("store watch unavailable, relying on polling",
			logx.String("dir", dir), logx.Err(err))
		return
	}

	// Editors and atomic renames produce bursts; debounce them into one
	// reconciliation request.
	const debounce = 250 * time.Millisecond
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounce, s.Kick)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn("store watch error", logx.Err(err))
		}
	}
}
