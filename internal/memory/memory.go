// Package memory implements the agent's filesystem-backed memory: a
// long-term note file and one file per day, read back into the system
// prompt by the context builder.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const longTermFile = "MEMORY.md"

// Store reads and appends to <workspace>/memory/MEMORY.md and
// <workspace>/memory/YYYY-MM-DD.md. It assumes a single writer — no file
// locking is performed.
type Store struct {
	dir string
}

func NewStore(workspace string) *Store {
	return &Store{dir: filepath.Join(workspace, "memory")}
}

func (s *Store) longTermPath() string {
	return filepath.Join(s.dir, longTermFile)
}

func (s *Store) todayPath(now time.Time) string {
	return filepath.Join(s.dir, now.Format("2006-01-02")+".md")
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// GetMemoryContext returns the concatenation of the long-term memory and
// today's notes, each under its own heading, joined by a blank line. Empty
// sections are omitted entirely.
func (s *Store) GetMemoryContext() string {
	return s.memoryContextAt(time.Now())
}

func (s *Store) memoryContextAt(now time.Time) string {
	var parts []string

	if longTerm := readTrimmed(s.longTermPath()); longTerm != "" {
		parts = append(parts, "## Long-term Memory\n\n"+longTerm)
	}
	if today := readTrimmed(s.todayPath(now)); today != "" {
		parts = append(parts, "## Today's Notes\n\n"+today)
	}
	return strings.Join(parts, "\n\n")
}

// AppendToday appends a note to today's day file, prepending a date header
// if the file is being created for the first time.
func (s *Store) AppendToday(note string) error {
	return s.appendTodayAt(note, time.Now())
}

func (s *Store) appendTodayAt(note string, now time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}

	path := s.todayPath(now)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open today's memory file: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintf(f, "# %s\n\n", now.Format("2006-01-02")); err != nil {
			return err
		}
	}
	note = strings.TrimRight(note, "\n")
	_, err = fmt.Fprintf(f, "%s\n", note)
	return err
}

// AppendLongTerm appends a note to the long-term memory file.
func (s *Store) AppendLongTerm(note string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	f, err := os.OpenFile(s.longTermPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open long-term memory file: %w", err)
	}
	defer f.Close()
	note = strings.TrimRight(note, "\n")
	_, err = fmt.Fprintf(f, "%s\n", note)
	return err
}
