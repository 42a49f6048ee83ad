// Package store persists the full job collection as a single JSON document.
//
// The document is the only channel through which other processes (the CLI,
// a web form) hand jobs to the running daemon: every mutation rewrites the
// file wholesale, and the daemon detects external writes by polling a
// coarse modification fingerprint. There is no lock shared across
// processes; consistency is read-reconcile, not transactional.
package store

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"postpilot/internal/post"
)

// ErrCorrupt means the document exists but could not be parsed.
var ErrCorrupt = errors.New("job store is corrupt")

// Fingerprint identifies one on-disk revision of the document. The zero
// value compares unequal to any existing file's fingerprint.
type Fingerprint struct {
	ModTimeNS int64
	Size      int64
}

// FileStore reads and writes the job document at a fixed path.
//
// FileStore itself is stateless and safe for concurrent use; callers that
// read-modify-write the collection must serialize those sequences under
// their own lock.
type FileStore struct {
	path string
}

func NewFile(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Path() string { return s.path }

// Load returns the job list in document order. A missing file is a first
// run and yields an empty list; an unparseable file yields ErrCorrupt.
func (s *FileStore) Load() ([]post.Job, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	var jobs []post.Job
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&jobs); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%s: %v", s.path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.Wrapf(ErrCorrupt, "%s: trailing data", s.path)
	}
	return jobs, nil
}

// Save atomically replaces the document with the given list, preserving
// order. The write goes through a temp file plus rename so readers never
// observe a partial document.
func (s *FileStore) Save(jobs []post.Job) error {
	if jobs == nil {
		jobs = []post.Job{}
	}
	b, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode jobs")
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "rename to %s", s.path)
	}
	return nil
}

// Fingerprint returns the current revision marker. A missing file yields
// the zero fingerprint.
func (s *FileStore) Fingerprint() Fingerprint {
	fi, err := os.Stat(s.path)
	if err != nil {
		return Fingerprint{}
	}
	return Fingerprint{ModTimeNS: fi.ModTime().UnixNano(), Size: fi.Size()}
}

// HasChangedSince reports whether the document differs from the given
// revision and returns the current one. It never false-negatives on a real
// rewrite: Save always replaces the file, which bumps mtime (and usually
// size). Second-level mtime resolution on coarse filesystems is acceptable
// per the reconciliation contract.
func (s *FileStore) HasChangedSince(prev Fingerprint) (bool, Fingerprint) {
	cur := s.Fingerprint()
	return cur != prev, cur
}
