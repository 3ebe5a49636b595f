package bibstore

import (
	"fmt"
	"os"
)

// RecoveryAction describes what RecoverIfNeeded did.
type RecoveryAction string

const (
	RecoveryNone      RecoveryAction = "none"      // No backup was pending
	RecoveryRestored  RecoveryAction = "restored"  // Backup moved over the live file
	RecoveryDiscarded RecoveryAction = "discarded" // Backup removed, live file kept
)

// Recovery reports the outcome of RecoverIfNeeded.
type Recovery struct {
	Action     RecoveryAction `json:"action"`
	BackupKeys int            `json:"backup_keys"`
	LiveKeys   int            `json:"live_keys"`
}

// RecoverIfNeeded reconciles a backup left by an interrupted rewrite.
//
// The backup is restored over the live file when it holds strictly more
// keys than the live file; otherwise it is discarded. On equal counts the
// live file wins even if the contents differ.
func (s *Store) RecoverIfNeeded() (Recovery, error) {
	state, err := s.State()
	if err != nil {
		return Recovery{}, err
	}
	if state == Clean {
		return Recovery{Action: RecoveryNone}, nil
	}

	backupKeys, err := keysAt(s.BackupPath())
	if err != nil {
		return Recovery{}, fmt.Errorf("reading backup: %w", err)
	}
	liveKeys, err := keysAt(s.path)
	if err != nil {
		return Recovery{}, err
	}

	rec := Recovery{BackupKeys: len(backupKeys), LiveKeys: len(liveKeys)}
	if rec.BackupKeys > rec.LiveKeys {
		if err := os.Rename(s.BackupPath(), s.path); err != nil {
			return Recovery{}, fmt.Errorf("restoring backup: %w", err)
		}
		rec.Action = RecoveryRestored
		return rec, nil
	}

	if err := os.Remove(s.BackupPath()); err != nil {
		return Recovery{}, fmt.Errorf("discarding backup: %w", err)
	}
	rec.Action = RecoveryDiscarded
	return rec, nil
}
