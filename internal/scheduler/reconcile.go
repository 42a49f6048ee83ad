package scheduler

import (
	"time"

	"postpilot/internal/eventbus"
	"postpilot/internal/post"
	"postpilot/pkg/logx"
)

// LoadAndArm performs the startup pass: every pending job with a future
// trigger gets a timer, every pending job whose trigger already passed is
// marked expired. Expirations are persisted before the monitoring loop
// starts so a crash right after startup cannot resurrect them.
func (s *Service) LoadAndArm() error {
	s.storeMu.Lock()
	jobs, err := s.store.Load()
	if err != nil {
		s.log.Warn("job store unreadable at startup; treating as empty", logx.Err(err))
		jobs = nil
	}

	now := time.Now()
	var expired []post.Job
	armed := 0
	for i := range jobs {
		if jobs[i].Status != post.StatusScheduled {
			continue
		}
		if jobs[i].TriggerTime.After(now) {
			s.arm(jobs[i])
			armed++
			continue
		}
		when := now
		jobs[i].Status = post.StatusExpired
		jobs[i].CompletedAt = &when
		expired = append(expired, jobs[i])
	}
	if len(expired) > 0 {
		if err := s.store.Save(jobs); err != nil {
			s.storeMu.Unlock()
			return err
		}
	}
	s.lastFP = s.store.Fingerprint()
	s.storeMu.Unlock()

	for _, j := range expired {
		s.publishEvent(eventbus.JobExpired, j, "trigger time passed while the scheduler was down")
	}
	s.log.Info("schedule loaded",
		logx.Int("armed", armed),
		logx.Int("expired", len(expired)),
		logx.Int("total", len(jobs)),
	)
	return nil
}

// reconcile is the periodic tick: if another process rewrote the store
// since we last saw it, diff the document against the engine's active
// timers, arming new pending jobs and disarming ones no longer pending.
func (s *Service) reconcile() {
	s.storeMu.Lock()
	changed, fp := s.store.HasChangedSince(s.lastFP)
	if !changed {
		s.storeMu.Unlock()
		return
	}
	jobs, err := s.store.Load()
	if err != nil {
		// Remember the revision anyway so a persistently corrupt file does
		// not warn on every tick.
		s.lastFP = fp
		s.storeMu.Unlock()
		s.log.Warn("job store changed but is unreadable; keeping current timers", logx.Err(err))
		return
	}
	s.lastFP = fp

	active := map[string]struct{}{}
	if s.engine != nil {
		active = s.engine.ActiveIDs()
	}
	now := time.Now()
	var toArm []post.Job
	var toDisarm []string
	seen := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		seen[j.ID] = struct{}{}
		_, isActive := active[j.ID]
		switch {
		case j.Status == post.StatusScheduled && j.TriggerTime.After(now) && !isActive:
			toArm = append(toArm, j)
		case j.Status != post.StatusScheduled && isActive:
			toDisarm = append(toDisarm, j.ID)
		}
	}
	// Jobs deleted from the document entirely lose their timers too.
	for id := range active {
		if _, ok := seen[id]; !ok {
			toDisarm = append(toDisarm, id)
		}
	}
	for _, j := range toArm {
		s.arm(j)
	}
	s.storeMu.Unlock()

	if s.engine != nil {
		for _, id := range toDisarm {
			s.engine.Disarm(id)
		}
	}
	if len(toArm) > 0 || len(toDisarm) > 0 {
		s.log.Info("store changed; timers reconciled",
			logx.Int("armed", len(toArm)),
			logx.Int("disarmed", len(toDisarm)),
		)
	}
}
