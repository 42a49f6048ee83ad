package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"postpilot/internal/post"
)

// Report is a point-in-time view of the job document, bucketed by status
// for display. Failed collects both failed and error outcomes.
type Report struct {
	Now       time.Time
	Upcoming  []post.Job
	Completed []post.Job
	Failed    []post.Job
	Expired   []post.Job
	Cancelled []post.Job
}

func (r Report) Total() int {
	return len(r.Upcoming) + len(r.Completed) + len(r.Failed) + len(r.Expired) + len(r.Cancelled)
}

// Report loads the current document and buckets it. Works on store-only
// services too.
func (s *Service) Report() (Report, error) {
	s.storeMu.Lock()
	jobs, err := s.store.Load()
	s.storeMu.Unlock()
	if err != nil {
		return Report{}, err
	}

	r := Report{Now: time.Now()}
	for _, j := range jobs {
		switch j.Status {
		case post.StatusScheduled:
			r.Upcoming = append(r.Upcoming, j)
		case post.StatusCompleted:
			r.Completed = append(r.Completed, j)
		case post.StatusFailed, post.StatusError:
			r.Failed = append(r.Failed, j)
		case post.StatusExpired:
			r.Expired = append(r.Expired, j)
		case post.StatusCancelled:
			r.Cancelled = append(r.Cancelled, j)
		}
	}
	sort.Slice(r.Upcoming, func(i, k int) bool {
		return r.Upcoming[i].TriggerTime.Before(r.Upcoming[k].TriggerTime)
	})
	return r, nil
}

// Render formats the report for terminal output.
func (r Report) Render() string {
	if r.Total() == 0 {
		return "No posts found.\n"
	}

	var b strings.Builder
	if len(r.Upcoming) > 0 {
		fmt.Fprintf(&b, "UPCOMING POSTS (%d)\n", len(r.Upcoming))
		for _, j := range r.Upcoming {
			fmt.Fprintf(&b, "  %s  %s  %s (in %s)\n",
				shortID(j.ID), j.Topic,
				j.TriggerTime.Format("2006-01-02 15:04"),
				post.FormatRemaining(j.TriggerTime.Sub(r.Now)))
		}
	}
	renderBucket(&b, "COMPLETED POSTS", r.Completed)
	renderBucket(&b, "FAILED POSTS", r.Failed)
	renderBucket(&b, "EXPIRED POSTS", r.Expired)
	renderBucket(&b, "CANCELLED POSTS", r.Cancelled)
	return b.String()
}

func renderBucket(b *strings.Builder, title string, jobs []post.Job) {
	if len(jobs) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d)\n", title, len(jobs))
	for _, j := range jobs {
		stamp := j.TriggerTime.Format("2006-01-02 15:04")
		if j.CompletedAt != nil {
			stamp = j.CompletedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(b, "  %s  %s  %s\n", shortID(j.ID), j.Topic, stamp)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
