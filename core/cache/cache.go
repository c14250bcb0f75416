// Package cache persists raw solver run records keyed by a fingerprint of
// (Config, Instance). A record only ever reaches its final path through an
// atomic rename of a completed temporary file, so the existence of the
// final file is the definition of a cache hit.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilianp07/sweep/core/model"
)

// DefaultDir is used when no directory is configured.
const DefaultDir = "data"

// TempSuffix marks a record still being written.
const TempSuffix = ".tmp"

// IOError reports a cache directory or file failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

var nameEscaper = strings.NewReplacer("/", "%2F", "\\", "%5C")

// Fingerprint is the canonical cache key:
// "{language}-{preprocessing}-{algorithm}-{instance id}".
func Fingerprint(cfg model.Config, inst model.Instance) string {
	return cfg.Identity() + "-" + inst.ID()
}

// Filename turns a fingerprint into a single path element.
func Filename(cfg model.Config, inst model.Instance) string {
	return nameEscaper.Replace(Fingerprint(cfg, inst))
}

// Store is a directory of run records.
type Store struct {
	dir string
}

// NewStore opens dir, creating it when missing.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the final path of the record for (cfg, inst).
func (s *Store) Path(cfg model.Config, inst model.Instance) string {
	return filepath.Join(s.dir, Filename(cfg, inst))
}

// TempPath returns the temporary path beside Path.
func (s *Store) TempPath(cfg model.Config, inst model.Instance) string {
	return s.Path(cfg, inst) + TempSuffix
}

// Cached reports whether a completed record exists for (cfg, inst).
func (s *Store) Cached(cfg model.Config, inst model.Instance) (bool, error) {
	st, err := os.Stat(s.Path(cfg, inst))
	switch {
	case err == nil:
		return st.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, &IOError{Op: "stat", Path: s.Path(cfg, inst), Err: err}
	}
}

// Read returns the completed record for (cfg, inst).
func (s *Store) Read(cfg model.Config, inst model.Instance) ([]byte, error) {
	b, err := os.ReadFile(s.Path(cfg, inst))
	if err != nil {
		return nil, &IOError{Op: "read", Path: s.Path(cfg, inst), Err: err}
	}
	return b, nil
}

// Create opens a fresh temporary file for (cfg, inst), truncating any
// leftover from an earlier aborted run.
func (s *Store) Create(cfg model.Config, inst model.Instance) (*os.File, error) {
	p := s.TempPath(cfg, inst)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &IOError{Op: "create", Path: p, Err: err}
	}
	return f, nil
}

// Commit atomically renames the temporary record to its final path.
func (s *Store) Commit(cfg model.Config, inst model.Instance) error {
	if err := os.Rename(s.TempPath(cfg, inst), s.Path(cfg, inst)); err != nil {
		return &IOError{Op: "commit", Path: s.Path(cfg, inst), Err: err}
	}
	return nil
}

// Discard removes the temporary record. A missing file is not an error.
func (s *Store) Discard(cfg model.Config, inst model.Instance) error {
	p := s.TempPath(cfg, inst)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Op: "remove", Path: p, Err: err}
	}
	return nil
}
