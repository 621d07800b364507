package reservation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"tix/pkg/logger"
)

// Store is the persistence boundary for the single reservation slot. It is
// purely structural: a corrupt record is deleted on read and reported as
// absent, but TTL expiry is the Manager's concern, not the Store's.
type Store interface {
	// Read returns the persisted record, or nil when the slot is empty.
	// A structurally invalid record is deleted as a side effect so it is
	// never retried.
	Read() (*Record, error)

	// Write replaces the persisted record. Last write wins.
	Write(rec *Record) error

	// Clear empties the slot. Clearing an empty slot is a no-op.
	Clear() error
}

// FileStore persists the reservation record as a JSON file. Writes go through
// a temp file and rename so a crashed write never leaves a half-written
// record behind.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  *logger.Logger
}

// NewFileStore returns a FileStore persisting at path.
func NewFileStore(path string, log *logger.Logger) *FileStore {
	if log == nil {
		log = logger.GetDefault()
	}
	return &FileStore{path: path, log: log}
}

func (s *FileStore) Read() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read reservation record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn("Deleting unparsable reservation record",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return nil, s.removeLocked()
	}

	if !structurallyValid(&rec) {
		s.log.Warn("Deleting structurally invalid reservation record",
			slog.String("path", s.path),
		)
		return nil, s.removeLocked()
	}

	return &rec, nil
}

func (s *FileStore) Write(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal reservation record: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create reservation store directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write reservation record: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to persist reservation record: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked()
}

func (s *FileStore) removeLocked() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear reservation record: %w", err)
	}
	return nil
}

// structurallyValid enforces the at-rest contract: a non-empty ticket set, an
// event id and a positive reservedAt timestamp.
func structurallyValid(rec *Record) bool {
	if rec.EventID == "" || rec.ReservedAt <= 0 || len(rec.TicketIDs) == 0 {
		return false
	}
	for _, id := range rec.TicketIDs {
		if id == "" {
			return false
		}
	}
	return true
}
