package reinterpret

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultStatePath is used when no state file is given.
const DefaultStatePath = "~/.roadlog/reinterpret-state.json"

// State tracks progress for resumable re-interpretation runs. The cursor is
// the (created_at, id) of the last registration handled.
type State struct {
	StartedAt       time.Time `json:"started_at"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	Since           time.Time `json:"since"`
	CursorCreatedAt time.Time `json:"cursor_created_at"`
	CursorID        uuid.UUID `json:"cursor_id"`
	Scanned         int       `json:"scanned"`
	Changed         int       `json:"changed"`
	Corrected       int       `json:"corrected"`
	Errors          []string  `json:"errors"`

	path string // not serialized
}

// LoadState loads the state at path, or starts a new one. A saved state
// for a different since is discarded so a new window starts from scratch.
func LoadState(path string, since time.Time) (*State, error) {
	p := expandHome(path)
	fresh := &State{StartedAt: time.Now().UTC(), Since: since.UTC(), path: p}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return fresh, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if !s.Since.Equal(since) {
		return fresh, nil
	}
	s.path = p
	return &s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return os.WriteFile(s.path, data, 0o644)
}

// Path is where the state is saved.
func (s *State) Path() string {
	return s.path
}

// Advance moves the cursor past a handled registration.
func (s *State) Advance(createdAt time.Time, id uuid.UUID) {
	s.CursorCreatedAt = createdAt
	s.CursorID = id
	s.Scanned++
}

// AddError records a processing error.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
