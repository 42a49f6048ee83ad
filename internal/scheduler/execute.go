package scheduler

import (
	"context"
	"fmt"
	"time"

	"postpilot/internal/content"
	"postpilot/internal/eventbus"
	"postpilot/internal/post"
	"postpilot/pkg/logx"
)

const executeTimeout = 5 * time.Minute

// execute runs when a job's timer fires: generate (or reuse) the content,
// publish it, and persist the outcome. It never blocks the engine; the
// timer goroutine is ours until we return.
func (s *Service) execute(id string) {
	s.wg.Add(1)
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("execution panicked", logx.String("job", id), logx.Any("panic", r))
			s.finish(id, post.StatusError, fmt.Sprintf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), executeTimeout)
	defer cancel()

	j, ok := s.snapshot(id)
	if !ok {
		s.log.Warn("timer fired for a job no longer in the store", logx.String("job", id))
		return
	}
	if j.Status != post.StatusScheduled {
		// A cancel (or an external edit) landed between the fire and this
		// read; honor it.
		s.log.Info("skipping fired job, no longer pending",
			logx.String("job", id), logx.String("status", string(j.Status)))
		return
	}

	s.log.Info("executing post", logx.String("job", id), logx.String("topic", j.Topic))

	var c content.Content
	if j.Content != "" {
		c = content.FromText(j.Topic, j.Content)
	} else if s.gen != nil {
		var err error
		c, err = s.gen.Generate(ctx, j.Topic)
		if err != nil {
			s.log.Error("content generation failed", logx.String("job", id), logx.Err(err))
			s.finish(id, post.StatusError, fmt.Sprintf("generate: %v", err))
			return
		}
	} else {
		c = content.FromText(j.Topic, j.Topic)
	}

	if s.pub == nil {
		s.finish(id, post.StatusError, "no publisher configured")
		return
	}
	published, err := s.pub.Publish(ctx, c)
	switch {
	case err != nil:
		s.log.Error("publish failed", logx.String("job", id), logx.Err(err))
		s.finish(id, post.StatusError, fmt.Sprintf("publish: %v", err))
	case !published:
		s.finish(id, post.StatusFailed, "publisher rejected the post")
	default:
		s.finish(id, post.StatusCompleted, c.Text)
	}
}

// snapshot reads the job's current record without mutating the store.
func (s *Service) snapshot(id string) (post.Job, bool) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	jobs, err := s.store.Load()
	if err != nil {
		s.log.Warn("store unreadable during execution", logx.String("job", id), logx.Err(err))
		return post.Job{}, false
	}
	idx := findJob(jobs, id)
	if idx < 0 {
		return post.Job{}, false
	}
	return jobs[idx], true
}

// finish records the terminal status for a fired job. Concurrent writers
// resolve by last-write-wins; a failed save is logged and left for the
// next reconciliation rather than retried here.
func (s *Service) finish(id string, status post.Status, detail string) {
	now := time.Now()

	s.storeMu.Lock()
	jobs, err := s.store.Load()
	if err != nil {
		s.storeMu.Unlock()
		s.log.Error("could not record outcome, store unreadable",
			logx.String("job", id), logx.String("status", string(status)), logx.Err(err))
		return
	}
	idx := findJob(jobs, id)
	if idx < 0 {
		s.storeMu.Unlock()
		s.log.Warn("could not record outcome, job missing from store", logx.String("job", id))
		return
	}
	jobs[idx].Status = status
	jobs[idx].CompletedAt = &now
	j := jobs[idx]
	if err := s.store.Save(jobs); err != nil {
		s.storeMu.Unlock()
		s.log.Warn("outcome not persisted; next write will carry it",
			logx.String("job", id), logx.Err(err))
		return
	}
	s.lastFP = s.store.Fingerprint()
	s.storeMu.Unlock()

	var typ string
	switch status {
	case post.StatusCompleted:
		typ = eventbus.JobCompleted
	case post.StatusFailed:
		typ = eventbus.JobFailed
	default:
		typ = eventbus.JobError
	}
	s.publishEvent(typ, j, detail)
	s.log.Info("post finished",
		logx.String("job", id),
		logx.String("topic", j.Topic),
		logx.String("status", string(status)),
	)
}
