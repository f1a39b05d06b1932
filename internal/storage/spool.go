package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stat-client/internal/metrics"
)

// Sink receives every assembled snapshot.
type Sink interface {
	Write(snap metrics.Snapshot) error
	Close() error
}

// Spool appends snapshots as NDJSON to one file per UTC day,
// snapshots-YYYY-MM-DD.ndjson, for the transport to pick up.
type Spool struct {
	dir  string
	mu   sync.Mutex
	file *os.File
	date string
	now  func() time.Time
}

func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool dir: %w", err)
	}

	s := &Spool{dir: dir, now: time.Now}
	if err := s.rotateIfNeeded(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Spool) Write(snap metrics.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateIfNeeded(); err != nil {
		return err
	}

	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

func (s *Spool) rotateIfNeeded() error {
	currentDate := s.now().UTC().Format(dateLayout)

	if s.file != nil && s.date == currentDate {
		return nil
	}

	if s.file != nil {
		s.file.Close()
	}

	filename := filepath.Join(s.dir, spoolFileName(currentDate))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open spool file: %w", err)
	}

	s.file = file
	s.date = currentDate
	return nil
}

func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}
