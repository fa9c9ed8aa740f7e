// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kiosk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RecoveryEntry is what a kiosk remembers about the session it was
// driving, so a restart mid-rip can pick the session back up with its
// control token intact.
type RecoveryEntry struct {
	SessionID    string    `json:"session_id"`
	ControlToken string    `json:"control_token"`
	PackCode     string    `json:"pack_code"`
	Status       string    `json:"status"`
	SavedAt      time.Time `json:"saved_at"`
}

// RecoveryStore persists the kiosk's active session across restarts.
type RecoveryStore interface {
	Save(entry RecoveryEntry) error
	// Load returns nil with no error when nothing is saved.
	Load() (*RecoveryEntry, error)
	Clear() error
}

// FileRecoveryStore keeps one JSON file per location slug. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// truncated entry.
type FileRecoveryStore struct {
	path string
}

func NewFileRecoveryStore(dir, slug string) (*FileRecoveryStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recovery dir: %w", err)
	}
	return &FileRecoveryStore{
		path: filepath.Join(dir, "recovery-"+slug+".json"),
	}, nil
}

func (f *FileRecoveryStore) Save(entry RecoveryEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recovery entry: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write recovery entry: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit recovery entry: %w", err)
	}
	return nil
}

func (f *FileRecoveryStore) Load() (*RecoveryEntry, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recovery entry: %w", err)
	}

	var entry RecoveryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse recovery entry: %w", err)
	}
	if entry.SessionID == "" {
		return nil, nil
	}
	return &entry, nil
}

func (f *FileRecoveryStore) Clear() error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
