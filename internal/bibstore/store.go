// Package bibstore manages a BibTeX bibliography file on disk.
//
// Full rewrites follow a backup protocol: BeginRewrite copies the live file
// to a sibling backup, the caller rewrites the live file, and CommitRewrite
// removes the backup. A backup that survives (because the process was
// interrupted or the rewrite was abandoned) is reconciled by RecoverIfNeeded
// on the next run.
package bibstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aykhuss/inspire/internal/bibtex"
)

// BackupSuffix is appended to the bibliography path to name its backup.
const BackupSuffix = ".bak"

var (
	// ErrDuplicateKey indicates the citation key is already in the file.
	ErrDuplicateKey = errors.New("citation key already in bibliography")

	// ErrBackupExists indicates a rewrite was started while a backup is pending.
	ErrBackupExists = errors.New("bibliography backup already exists")

	// ErrNoBackup indicates a rewrite step was attempted without a pending backup.
	ErrNoBackup = errors.New("no bibliography backup pending")
)

// BackupState is the lifecycle state of the rewrite protocol.
type BackupState int

const (
	Clean         BackupState = iota // No backup file exists
	BackupPending                    // Live file copied aside, rewrite in progress or interrupted
)

func (s BackupState) String() string {
	switch s {
	case Clean:
		return "clean"
	case BackupPending:
		return "backup-pending"
	default:
		return fmt.Sprintf("BackupState(%d)", int(s))
	}
}

// Store is a bibliography file. It holds no cached state: every query
// re-reads the file, so external edits between calls are observed.
type Store struct {
	path string
}

// New returns a Store for the bibliography at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the live bibliography path.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the backup path.
func (s *Store) BackupPath() string {
	return s.path + BackupSuffix
}

// State reports whether a backup is pending.
func (s *Store) State() (BackupState, error) {
	_, err := os.Stat(s.BackupPath())
	if err == nil {
		return BackupPending, nil
	}
	if os.IsNotExist(err) {
		return Clean, nil
	}
	return Clean, fmt.Errorf("checking backup: %w", err)
}

// ListKeys returns the citation keys in file order. A missing file has no keys.
func (s *Store) ListKeys() ([]string, error) {
	return keysAt(s.path)
}

// Entries returns all well-formed entries and the skipped fragments.
func (s *Store) Entries() (*bibtex.Result, error) {
	res, err := bibtex.ParseFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return res, nil
}

// Contains reports whether key is present in the file.
func (s *Store) Contains(key string) (bool, error) {
	keys, err := s.ListKeys()
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

// Append adds an entry to the end of the file, preceded by a blank line.
// It fails with ErrDuplicateKey, leaving the file untouched, if key is
// already present on disk.
func (s *Store) Append(key, text string) error {
	exists, err := s.Contains(key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening bibliography for append: %w", err)
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := f.WriteString("\n" + text); err != nil {
		f.Close()
		return fmt.Errorf("writing entry %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing bibliography: %w", err)
	}
	return nil
}

// BeginRewrite copies the live file to the backup path (Clean -> BackupPending).
// The live file must exist. The copy goes through a temp file and rename so a
// partially written backup is never observed.
func (s *Store) BeginRewrite() error {
	state, err := s.State()
	if err != nil {
		return err
	}
	if state == BackupPending {
		return fmt.Errorf("%w: %s", ErrBackupExists, s.BackupPath())
	}

	src, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening bibliography: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat bibliography: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-*.bak")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, src); err != nil {
		tmpFile.Close()
		return fmt.Errorf("copying bibliography: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting backup mode: %w", err)
	}

	if err := os.Rename(tmpPath, s.BackupPath()); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// WriteHeader truncates the live file and writes a single header line.
// It is only allowed while a backup is pending.
func (s *Store) WriteHeader(header string) error {
	state, err := s.State()
	if err != nil {
		return err
	}
	if state != BackupPending {
		return fmt.Errorf("%w: refusing to truncate %s", ErrNoBackup, s.path)
	}

	if !strings.HasSuffix(header, "\n") {
		header += "\n"
	}
	if err := os.WriteFile(s.path, []byte(header), 0644); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// CommitRewrite removes the backup (BackupPending -> Clean). Call it only
// after the live file holds its complete new content.
func (s *Store) CommitRewrite() error {
	if err := os.Remove(s.BackupPath()); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNoBackup, s.BackupPath())
		}
		return fmt.Errorf("removing backup: %w", err)
	}
	return nil
}

func keysAt(path string) ([]string, error) {
	res, err := bibtex.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return res.Keys(), nil
}
