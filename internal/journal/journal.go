// Package journal appends one structured line per publish outcome to daily
// log files: logs/posts/<day>.log for successes, logs/errors/<day>.log for
// failures and errors. The files are plain JSON lines so they can be
// tailed or grepped without tooling.
package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"postpilot/internal/eventbus"
	"postpilot/internal/post"
	"postpilot/pkg/logx"
)

const previewLen = 100

type Journal struct {
	dir string
	log logx.Logger
}

func New(dir string, log logx.Logger) *Journal {
	if dir == "" {
		dir = "./logs"
	}
	return &Journal{dir: dir, log: log}
}

type entry struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Topic     string `json:"topic"`
	Preview   string `json:"content_preview,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Success records a published post under logs/posts.
func (j *Journal) Success(jb post.Job, preview string) error {
	if len(preview) > previewLen {
		preview = preview[:previewLen] + "..."
	}
	return j.write("posts", entry{
		Timestamp: time.Now().Format(post.TimeLayout),
		Status:    "success",
		JobID:     jb.ID,
		Topic:     jb.Topic,
		Preview:   preview,
	})
}

// Failure records a failed or errored post under logs/errors.
func (j *Journal) Failure(jb post.Job, reason string) error {
	return j.write("errors", entry{
		Timestamp: time.Now().Format(post.TimeLayout),
		Status:    string(jb.Status),
		JobID:     jb.ID,
		Topic:     jb.Topic,
		Error:     reason,
	})
}

func (j *Journal) write(kind string, e entry) error {
	dir := filepath.Join(j.dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}
	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode journal entry")
	}
	b = append(b, '\n')
	if _, err := f.Write(b); err != nil {
		return errors.Wrapf(err, "append %s", path)
	}
	return nil
}

// Consume drains job lifecycle events from the bus until ctx is done.
// Journal write failures are logged, never propagated: the journal is an
// observer, not part of the pipeline's success criteria.
func (j *Journal) Consume(ctx context.Context, bus eventbus.Bus) {
	ch, unsub := bus.Subscribe(64)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			var err error
			switch ev.Type {
			case eventbus.JobCompleted:
				err = j.Success(ev.Job, ev.Detail)
			case eventbus.JobFailed, eventbus.JobError:
				err = j.Failure(ev.Job, ev.Detail)
			}
			if err != nil {
				j.log.Warn("journal write failed", logx.Err(err), logx.String("job", ev.Job.ID))
			}
		}
	}
}
