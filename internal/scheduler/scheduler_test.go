package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"postpilot/internal/content"
	"postpilot/internal/eventbus"
	"postpilot/internal/post"
	"postpilot/internal/store"
	"postpilot/internal/trigger"
	"postpilot/pkg/logx"
)

type stubGen struct {
	c   content.Content
	err error
}

func (g stubGen) Generate(_ context.Context, topic string) (content.Content, error) {
	if g.err != nil {
		return content.Content{}, g.err
	}
	c := g.c
	if c.Topic == "" {
		c.Topic = topic
	}
	if c.Text == "" {
		c.Text = "generated text about " + topic
	}
	return c, nil
}

type stubPub struct {
	mu    sync.Mutex
	calls int
	ok    bool
	err   error
}

func (p *stubPub) Name() string { return "stub" }

func (p *stubPub) Publish(_ context.Context, _ content.Content) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.ok, p.err
}

func (p *stubPub) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestService(t *testing.T, pub *stubPub) (*Service, *store.FileStore) {
	t.Helper()
	st := store.NewFile(filepath.Join(t.TempDir(), "jobs.json"))
	eng := trigger.New(logx.Nop())
	t.Cleanup(eng.StopAll)
	svc := New(Config{}, logx.Nop(), st, eng, stubGen{}, pub, eventbus.New())
	return svc, st
}

func loadJob(t *testing.T, st *store.FileStore, id string) post.Job {
	t.Helper()
	jobs, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, j := range jobs {
		if j.ID == id {
			return j
		}
	}
	t.Fatalf("job %s not in store", id)
	return post.Job{}
}

func waitForStatus(t *testing.T, st *store.FileStore, id string, want post.Status) post.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		j := loadJob(t, st, id)
		if j.Status == want {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", id, want)
	return post.Job{}
}

func TestAddJobRejectsPastTime(t *testing.T) {
	svc, _ := newTestService(t, &stubPub{ok: true})
	if _, err := svc.AddJob("topic", time.Now().Add(-time.Minute), ""); !errors.Is(err, post.ErrInvalidTime) {
		t.Fatalf("err = %v, want ErrInvalidTime", err)
	}
}

func TestAddJobPersistsAndArms(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: true})
	j, err := svc.AddJob("launch", time.Now().Add(time.Hour), "body")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	got := loadJob(t, st, j.ID)
	if got.Status != post.StatusScheduled || got.Content != "body" {
		t.Fatalf("persisted job: %+v", got)
	}
	if svc.engine.Len() != 1 {
		t.Fatalf("engine should hold one timer, Len = %d", svc.engine.Len())
	}
}

func TestPipelineCompleted(t *testing.T) {
	pub := &stubPub{ok: true}
	svc, st := newTestService(t, pub)
	j, err := svc.AddJob("launch", time.Now().Add(30*time.Millisecond), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	got := waitForStatus(t, st, j.ID, post.StatusCompleted)
	if got.CompletedAt == nil {
		t.Fatal("completed job should carry a completion stamp")
	}
	if pub.published() != 1 {
		t.Fatalf("published %d times, want 1", pub.published())
	}
}

func TestPipelineFailedOnRejection(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: false})
	j, err := svc.AddJob("launch", time.Now().Add(30*time.Millisecond), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	waitForStatus(t, st, j.ID, post.StatusFailed)
}

func TestPipelineErrorOnPublishError(t *testing.T) {
	svc, st := newTestService(t, &stubPub{err: errors.New("connection refused")})
	j, err := svc.AddJob("launch", time.Now().Add(30*time.Millisecond), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	waitForStatus(t, st, j.ID, post.StatusError)
}

func TestPipelineErrorOnGenerationFailure(t *testing.T) {
	pub := &stubPub{ok: true}
	svc, st := newTestService(t, pub)
	svc.gen = stubGen{err: errors.New("model unavailable")}

	// Empty content forces generation.
	j, err := svc.AddJob("launch", time.Now().Add(30*time.Millisecond), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	waitForStatus(t, st, j.ID, post.StatusError)
	if pub.published() != 0 {
		t.Fatal("nothing should be published when generation fails")
	}
}

func TestCancel(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: true})
	j, err := svc.AddJob("launch", time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if err := svc.Cancel(j.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got := loadJob(t, st, j.ID)
	if got.Status != post.StatusCancelled || got.CompletedAt == nil {
		t.Fatalf("cancelled job: %+v", got)
	}
	if svc.engine.Len() != 0 {
		t.Fatalf("cancel should disarm, Len = %d", svc.engine.Len())
	}

	// Cancelling again is a no-op, not an error.
	if err := svc.Cancel(j.ID); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if got := loadJob(t, st, j.ID); got.Status != post.StatusCancelled {
		t.Fatalf("second cancel changed status to %q", got.Status)
	}
}

func TestCancelUnknownJob(t *testing.T) {
	svc, _ := newTestService(t, &stubPub{ok: true})
	if err := svc.Cancel("no-such-id"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("err = %v, want ErrUnknownJob", err)
	}
}

func TestRescheduleRevivesTerminalJob(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: true})
	j, err := svc.AddJob("launch", time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := svc.Cancel(j.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	at := time.Now().Add(2 * time.Hour)
	if err := svc.Reschedule(j.ID, at); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	got := loadJob(t, st, j.ID)
	if got.Status != post.StatusScheduled {
		t.Fatalf("status = %q, want scheduled", got.Status)
	}
	if got.CompletedAt != nil {
		t.Fatal("reschedule should clear the completion stamp")
	}
	if !got.TriggerTime.Equal(at.Truncate(time.Second)) && !got.TriggerTime.Equal(at) {
		t.Fatalf("trigger time = %v, want %v", got.TriggerTime, at)
	}
	if svc.engine.Len() != 1 {
		t.Fatalf("reschedule should re-arm, Len = %d", svc.engine.Len())
	}
}

func TestRescheduleRejectsPastAndUnknown(t *testing.T) {
	svc, _ := newTestService(t, &stubPub{ok: true})
	j, err := svc.AddJob("launch", time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := svc.Reschedule(j.ID, time.Now().Add(-time.Minute)); !errors.Is(err, post.ErrInvalidTime) {
		t.Fatalf("past time: err = %v, want ErrInvalidTime", err)
	}
	if err := svc.Reschedule("no-such-id", time.Now().Add(time.Hour)); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("unknown id: err = %v, want ErrUnknownJob", err)
	}
}

func TestLoadAndArmExpiresStaleJobs(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: true})

	stale := post.New("missed", time.Now().Add(-time.Hour), "")
	future := post.New("upcoming", time.Now().Add(time.Hour), "")
	done := post.New("already done", time.Now().Add(-2*time.Hour), "")
	now := time.Now()
	done.Status = post.StatusCompleted
	done.CompletedAt = &now
	if err := st.Save([]post.Job{stale, future, done}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	if err := svc.LoadAndArm(); err != nil {
		t.Fatalf("LoadAndArm: %v", err)
	}

	if got := loadJob(t, st, stale.ID); got.Status != post.StatusExpired || got.CompletedAt == nil {
		t.Fatalf("stale job should be expired with a stamp: %+v", got)
	}
	if got := loadJob(t, st, future.ID); got.Status != post.StatusScheduled {
		t.Fatalf("future job should stay scheduled: %+v", got)
	}
	if got := loadJob(t, st, done.ID); got.Status != post.StatusCompleted {
		t.Fatalf("terminal job should be untouched: %+v", got)
	}
	if svc.engine.Len() != 1 {
		t.Fatalf("only the future job should be armed, Len = %d", svc.engine.Len())
	}
}

func TestReconcilePicksUpExternalWrites(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: true})
	if err := svc.LoadAndArm(); err != nil {
		t.Fatalf("LoadAndArm: %v", err)
	}

	// Another process appends a job.
	external := post.New("from the cli", time.Now().Add(time.Hour), "")
	if err := st.Save([]post.Job{external}); err != nil {
		t.Fatalf("external save: %v", err)
	}
	svc.reconcile()
	if svc.engine.Len() != 1 {
		t.Fatalf("external add should arm a timer, Len = %d", svc.engine.Len())
	}

	// The same process cancels it.
	external.Status = post.StatusCancelled
	now := time.Now()
	external.CompletedAt = &now
	if err := st.Save([]post.Job{external}); err != nil {
		t.Fatalf("external save: %v", err)
	}
	svc.reconcile()
	if svc.engine.Len() != 0 {
		t.Fatalf("external cancel should disarm, Len = %d", svc.engine.Len())
	}
}

func TestReconcileNoChangeIsNoop(t *testing.T) {
	svc, _ := newTestService(t, &stubPub{ok: true})
	j, err := svc.AddJob("launch", time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	svc.reconcile()
	if svc.engine.Len() != 1 {
		t.Fatalf("reconcile without changes should keep the timer, Len = %d", svc.engine.Len())
	}
	_ = j
}

func TestReconcileDisarmsDeletedJobs(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: true})
	if _, err := svc.AddJob("launch", time.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	// The document is truncated externally; the timer must go too.
	if err := st.Save(nil); err != nil {
		t.Fatalf("external save: %v", err)
	}
	svc.reconcile()
	if svc.engine.Len() != 0 {
		t.Fatalf("deleted job should be disarmed, Len = %d", svc.engine.Len())
	}
}

func TestCancelAfterFireKeepsOutcome(t *testing.T) {
	pub := &stubPub{ok: true}
	svc, st := newTestService(t, pub)
	j, err := svc.AddJob("launch", time.Now().Add(20*time.Millisecond), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	waitForStatus(t, st, j.ID, post.StatusCompleted)

	// Cancel after completion leaves the outcome in place.
	if err := svc.Cancel(j.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := loadJob(t, st, j.ID); got.Status != post.StatusCompleted {
		t.Fatalf("cancel of a completed job changed status to %q", got.Status)
	}
}

func TestClearKeepsPendingOnly(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: true})
	pending := post.New("pending", time.Now().Add(time.Hour), "")
	doneAt := time.Now()
	finished := post.New("finished", time.Now().Add(-time.Hour), "")
	finished.Status = post.StatusCompleted
	finished.CompletedAt = &doneAt
	expired := post.New("expired", time.Now().Add(-2*time.Hour), "")
	expired.Status = post.StatusExpired
	expired.CompletedAt = &doneAt
	if err := st.Save([]post.Job{pending, finished, expired}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	n, err := svc.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	jobs, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != pending.ID {
		t.Fatalf("only the pending job should remain: %+v", jobs)
	}

	// Second clear removes nothing.
	n, err = svc.Clear()
	if err != nil || n != 0 {
		t.Fatalf("second Clear = (%d, %v), want (0, nil)", n, err)
	}
}

func TestReportBucketsAndSorts(t *testing.T) {
	svc, st := newTestService(t, &stubPub{ok: true})
	doneAt := time.Now()
	later := post.New("later", time.Now().Add(2*time.Hour), "")
	sooner := post.New("sooner", time.Now().Add(time.Hour), "")
	failed := post.New("failed", time.Now().Add(-time.Hour), "")
	failed.Status = post.StatusFailed
	failed.CompletedAt = &doneAt
	errored := post.New("errored", time.Now().Add(-time.Hour), "")
	errored.Status = post.StatusError
	errored.CompletedAt = &doneAt
	if err := st.Save([]post.Job{later, sooner, failed, errored}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	r, err := svc.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if r.Total() != 4 {
		t.Fatalf("Total = %d, want 4", r.Total())
	}
	if len(r.Upcoming) != 2 || r.Upcoming[0].ID != sooner.ID {
		t.Fatalf("upcoming should be sorted soonest first: %+v", r.Upcoming)
	}
	if len(r.Failed) != 2 {
		t.Fatalf("failed bucket should hold failed and error outcomes, got %d", len(r.Failed))
	}

	out := r.Render()
	if out == "" || out == "No posts found.\n" {
		t.Fatalf("Render output: %q", out)
	}
}

func TestEventsPublishedOnLifecycle(t *testing.T) {
	bus := eventbus.New()
	st := store.NewFile(filepath.Join(t.TempDir(), "jobs.json"))
	eng := trigger.New(logx.Nop())
	t.Cleanup(eng.StopAll)
	svc := New(Config{}, logx.Nop(), st, eng, stubGen{}, &stubPub{ok: true}, bus)

	ch, unsub := bus.Subscribe(16)
	defer unsub()

	j, err := svc.AddJob("launch", time.Now().Add(30*time.Millisecond), "")
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	want := map[string]bool{eventbus.JobScheduled: false, eventbus.JobCompleted: false}
	deadline := time.After(3 * time.Second)
	for {
		allSeen := true
		for _, seen := range want {
			if !seen {
				allSeen = false
			}
		}
		if allSeen {
			break
		}
		select {
		case ev := <-ch:
			if _, ok := want[ev.Type]; ok && ev.Job.ID == j.ID {
				want[ev.Type] = true
			}
		case <-deadline:
			t.Fatalf("missing lifecycle events: %+v", want)
		}
	}
}
