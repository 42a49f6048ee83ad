// Package post defines the durable record of one scheduled publication and
// the schedule-time string formats accepted on the CLI surface.
package post

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Status is the closed set of lifecycle states a job can be in.
//
// "scheduled" is the sole initial state. All other states are terminal:
// nothing transitions out of them except an explicit reschedule, which resets
// the job back to "scheduled".
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusError     Status = "error"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusFailed, StatusError, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition occurs from s.
func (s Status) Terminal() bool { return s.Valid() && s != StatusScheduled }

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st := Status(raw)
	if !st.Valid() {
		return errors.Newf("unknown job status %q", raw)
	}
	*s = st
	return nil
}

// TimeLayout is the on-disk timestamp format: ISO-8601, local clock, no zone.
const TimeLayout = "2006-01-02T15:04:05"

// Job is one scheduled publication task.
//
// Content, when non-empty, is used verbatim and content generation is
// skipped. TriggerTime is wall-clock local time; the store may contain jobs
// whose trigger time is in the past (they expire at the next startup).
type Job struct {
	ID          string
	Topic       string
	Content     string
	TriggerTime time.Time
	Status      Status
	CompletedAt *time.Time
}

// New returns a freshly scheduled job with a generated id.
func New(topic string, at time.Time, content string) Job {
	return Job{
		ID:          uuid.NewString(),
		Topic:       topic,
		Content:     content,
		TriggerTime: at,
		Status:      StatusScheduled,
	}
}

// Due reports whether the job's trigger time is at or before now.
func (j Job) Due(now time.Time) bool { return !j.TriggerTime.After(now) }

type jobJSON struct {
	ID          string  `json:"id"`
	Topic       string  `json:"topic"`
	Content     *string `json:"content"`
	TriggerTime string  `json:"trigger_time"`
	Status      Status  `json:"status"`
	CompletedAt *string `json:"completed_at"`
}

func (j Job) MarshalJSON() ([]byte, error) {
	out := jobJSON{
		ID:          j.ID,
		Topic:       j.Topic,
		TriggerTime: j.TriggerTime.Format(TimeLayout),
		Status:      j.Status,
	}
	if j.Content != "" {
		c := j.Content
		out.Content = &c
	}
	if j.CompletedAt != nil {
		s := j.CompletedAt.Format(TimeLayout)
		out.CompletedAt = &s
	}
	return json.Marshal(out)
}

func (j *Job) UnmarshalJSON(b []byte) error {
	var in jobJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	trig, err := parseStamp(in.TriggerTime)
	if err != nil {
		return errors.Wrapf(err, "job %s: trigger_time", in.ID)
	}
	j.ID = in.ID
	j.Topic = in.Topic
	j.Content = ""
	if in.Content != nil {
		j.Content = *in.Content
	}
	j.TriggerTime = trig
	j.Status = in.Status
	j.CompletedAt = nil
	if in.CompletedAt != nil && *in.CompletedAt != "" {
		done, err := parseStamp(*in.CompletedAt)
		if err != nil {
			return errors.Wrapf(err, "job %s: completed_at", in.ID)
		}
		j.CompletedAt = &done
	}
	return nil
}

// parseStamp accepts the local layout with or without fractional seconds, and
// tolerates RFC 3339 stamps written by other tools.
func parseStamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Newf("unparseable timestamp %q", s)
	}
	return t.Local(), nil
}
