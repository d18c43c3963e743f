/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package rotation

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// State is the persisted cursor. It may be stale relative to the current
// sequence length; Start normalizes it before use.
type State int

// Start returns the position the cursor points at in a sequence of length total.
func (s State) Start(total int) int {
	if total <= 0 {
		return 0
	}
	start := int(s) % total
	if start < 0 {
		start += total
	}
	return start
}

// Load returns the cursor stored at path. A missing, unreadable, non-integer
// or negative file yields fallback.
func Load(path string, fallback State) State {
	s, err := read(path)
	if err != nil {
		return fallback
	}
	return s
}

func read(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("state file %s: %w", path, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("state file %s: negative cursor %d", path, n)
	}
	return State(n), nil
}

// Save overwrites path with the decimal cursor, creating parent directories.
func Save(path string, s State) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(int(s))), 0o644); err != nil {
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}
	return nil
}

// Store binds a state path to its fallback and logs silent recoveries.
type Store struct {
	Path     string
	Fallback State
	log      *zap.SugaredLogger
}

func NewStore(path string, fallback State, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{Path: path, Fallback: fallback, log: log}
}

// Load behaves like the package-level Load but records why the fallback was used.
func (s *Store) Load() State {
	st, err := read(s.Path)
	if err != nil {
		s.log.Debugw("Using fallback rotation cursor", "path", s.Path, "fallback", int(s.Fallback), "reason", err)
		return s.Fallback
	}
	s.log.Debugw("Loaded rotation cursor", "path", s.Path, "cursor", int(st))
	return st
}

func (s *Store) Save(st State) error {
	if err := Save(s.Path, st); err != nil {
		return err
	}
	s.log.Debugw("Saved rotation cursor", "path", s.Path, "cursor", int(st))
	return nil
}
