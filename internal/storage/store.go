package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const stagingDir = ".staging"

// Store is a flat on-disk file store with a two-phase write protocol.
// Files are first written into a hidden staging area and only moved into
// the public root once the owning database row is committed. Files whose
// commit never happened are swept out by age.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, stagingDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory served as the public file root.
func (s *Store) Root() string {
	return s.root
}

// Stage writes a file into the staging area. The file is not visible
// under the public root until Promote is called.
func (s *Store) Stage(name string, write func(io.Writer) error) error {
	f, err := os.Create(s.stagedPath(name))
	if err != nil {
		return fmt.Errorf("staging %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("staging %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("staging %s: %w", name, err)
	}
	return nil
}

// Promote moves a staged file into the public root. Rename within one
// directory tree is atomic, so readers never see a partial file.
func (s *Store) Promote(name string) error {
	if err := os.Rename(s.stagedPath(name), s.publicPath(name)); err != nil {
		return fmt.Errorf("promoting %s: %w", name, err)
	}
	return nil
}

// DiscardStaged deletes a staged file after a failed commit. A missing
// file is not an error.
func (s *Store) DiscardStaged(name string) error {
	err := os.Remove(s.stagedPath(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Remove deletes a promoted file. A missing file is not an error, so
// deletes stay idempotent.
func (s *Store) Remove(name string) error {
	err := os.Remove(s.publicPath(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.publicPath(name))
	return err == nil
}

// SweepStaged removes staged files older than the given age and returns
// how many were deleted. Run periodically to clean up after crashed or
// aborted uploads.
func (s *Store) SweepStaged(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, stagingDir))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, stagingDir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) stagedPath(name string) string {
	return filepath.Join(s.root, stagingDir, filepath.Base(name))
}

func (s *Store) publicPath(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}
