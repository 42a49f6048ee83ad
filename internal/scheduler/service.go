package scheduler

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"postpilot/internal/content"
	"postpilot/internal/eventbus"
	"postpilot/internal/post"
	"postpilot/internal/publish"
	"postpilot/internal/store"
	"postpilot/internal/trigger"
	"postpilot/pkg/logx"
)

// ErrUnknownJob means no job with the given id exists in the store.
var ErrUnknownJob = errors.New("unknown job id")

type Config struct {
	PollInterval   time.Duration
	StatusInterval time.Duration
	ShutdownWait   time.Duration
	// WatchStore adds an fsnotify watch on the store file for instant
	// pickup of external writes; polling remains the correctness baseline.
	WatchStore bool
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = 5 * time.Minute
	}
	if c.ShutdownWait <= 0 {
		c.ShutdownWait = 30 * time.Second
	}
}

// Service is the single running scheduler instance. It is constructed
// explicitly by the process entry point and passed around; there is no
// package-level singleton.
type Service struct {
	cfg Config
	log logx.Logger

	store  *store.FileStore
	engine *trigger.Engine
	gen    content.Generator
	pub    publish.Publisher
	bus    eventbus.Bus

	// storeMu serializes every load-mutate-save against the job document.
	// lastFP (the store revision most recently seen by this process) is
	// guarded by it as well.
	storeMu sync.Mutex
	lastFP  store.Fingerprint

	// wg counts in-flight execution callbacks for the shutdown drain.
	wg   sync.WaitGroup
	kick chan struct{}
}

func New(cfg Config, log logx.Logger, st *store.FileStore, eng *trigger.Engine,
	gen content.Generator, pub publish.Publisher, bus eventbus.Bus) *Service {
	cfg.applyDefaults()
	return &Service{
		cfg:    cfg,
		log:    log,
		store:  st,
		engine: eng,
		gen:    gen,
		pub:    pub,
		bus:    bus,
		kick:   make(chan struct{}, 1),
	}
}

// NewStoreOnly returns a service that can mutate the job document but owns
// no timers. CLI processes use it; the running daemon notices their writes
// through reconciliation.
func NewStoreOnly(log logx.Logger, st *store.FileStore) *Service {
	return &Service{log: log, store: st, kick: make(chan struct{}, 1)}
}

// AddJob validates and persists a new scheduled job, arming a timer when
// this service runs the trigger engine.
func (s *Service) AddJob(topic string, at time.Time, body string) (post.Job, error) {
	if !at.After(time.Now()) {
		return post.Job{}, errors.Wrapf(post.ErrInvalidTime, "%s", at.Format("2006-01-02 15:04"))
	}
	j := post.New(topic, at, body)

	s.storeMu.Lock()
	jobs, err := s.store.Load()
	if err != nil {
		// Degrade to a fresh schedule rather than refuse the add; the store
		// is durable-best-effort, not a transactional ledger.
		s.log.Warn("job store unreadable; starting a fresh document", logx.Err(err))
		jobs = nil
	}
	jobs = append(jobs, j)
	if err := s.store.Save(jobs); err != nil {
		s.storeMu.Unlock()
		return post.Job{}, errors.Wrap(err, "persist new job")
	}
	s.lastFP = s.store.Fingerprint()
	s.arm(j)
	s.storeMu.Unlock()

	s.publishEvent(eventbus.JobScheduled, j, "")
	s.log.Info("post scheduled",
		logx.String("job", j.ID),
		logx.String("topic", topic),
		logx.Time("trigger", at),
	)
	return j, nil
}

// Cancel disarms the job's timer (if any) and marks it cancelled. The
// document is persisted even when the job already fired; cancelling a
// terminal job is a no-op that still succeeds.
func (s *Service) Cancel(id string) error {
	s.storeMu.Lock()
	jobs, err := s.store.Load()
	if err != nil {
		s.storeMu.Unlock()
		return errors.Wrap(err, "cancel")
	}
	idx := findJob(jobs, id)
	if idx < 0 {
		s.storeMu.Unlock()
		return errors.Wrapf(ErrUnknownJob, "%s", id)
	}
	var cancelled *post.Job
	if jobs[idx].Status == post.StatusScheduled {
		now := time.Now()
		jobs[idx].Status = post.StatusCancelled
		jobs[idx].CompletedAt = &now
		cancelled = &jobs[idx]
	}
	if err := s.store.Save(jobs); err != nil {
		s.storeMu.Unlock()
		return errors.Wrap(err, "persist cancel")
	}
	s.lastFP = s.store.Fingerprint()
	if s.engine != nil {
		s.engine.Disarm(id)
	}
	s.storeMu.Unlock()

	if cancelled != nil {
		s.publishEvent(eventbus.JobCancelled, *cancelled, "")
		s.log.Info("post cancelled", logx.String("job", id))
	}
	return nil
}

// Reschedule moves a job (terminal or pending) to a new future time. This
// is the only path that takes a terminal job back to scheduled.
func (s *Service) Reschedule(id string, at time.Time) error {
	if !at.After(time.Now()) {
		return errors.Wrapf(post.ErrInvalidTime, "%s", at.Format("2006-01-02 15:04"))
	}

	s.storeMu.Lock()
	jobs, err := s.store.Load()
	if err != nil {
		s.storeMu.Unlock()
		return errors.Wrap(err, "reschedule")
	}
	idx := findJob(jobs, id)
	if idx < 0 {
		s.storeMu.Unlock()
		return errors.Wrapf(ErrUnknownJob, "%s", id)
	}
	jobs[idx].TriggerTime = at
	jobs[idx].Status = post.StatusScheduled
	jobs[idx].CompletedAt = nil
	j := jobs[idx]
	if err := s.store.Save(jobs); err != nil {
		s.storeMu.Unlock()
		return errors.Wrap(err, "persist reschedule")
	}
	s.lastFP = s.store.Fingerprint()
	s.arm(j)
	s.storeMu.Unlock()

	s.publishEvent(eventbus.JobRescheduled, j, "")
	s.log.Info("post rescheduled", logx.String("job", id), logx.Time("trigger", at))
	return nil
}

// Clear drops every terminal job from the document, keeping only pending
// ones. It returns how many records were removed.
func (s *Service) Clear() (int, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	jobs, err := s.store.Load()
	if err != nil {
		return 0, errors.Wrap(err, "clear")
	}
	kept := jobs[:0]
	for _, j := range jobs {
		if j.Status == post.StatusScheduled {
			kept = append(kept, j)
		}
	}
	removed := len(jobs) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.store.Save(kept); err != nil {
		return 0, errors.Wrap(err, "persist clear")
	}
	s.lastFP = s.store.Fingerprint()
	s.log.Info("cleared finished posts", logx.Int("removed", removed), logx.Int("remaining", len(kept)))
	return removed, nil
}

// arm registers the job's timer. Call with storeMu held or on a freshly
// created job; the engine has its own lock.
func (s *Service) arm(j post.Job) {
	if s.engine == nil {
		return
	}
	id := j.ID
	if err := s.engine.Arm(id, j.TriggerTime, func() { s.execute(id) }); err != nil {
		s.log.Warn("could not arm job", logx.String("job", id), logx.Err(err))
	}
}

func (s *Service) publishEvent(typ string, j post.Job, detail string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Job: j, Detail: detail})
}

func findJob(jobs []post.Job, id string) int {
	for i := range jobs {
		if jobs[i].ID == id {
			return i
		}
	}
	return -1
}
