package reservation

import "sync"

// MemoryStore keeps the reservation slot in memory. It applies the same
// structural validation and corrupt-delete rule as FileStore so tests and
// embedders see identical semantics.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, nil
	}
	if !structurallyValid(s.rec) {
		s.rec = nil
		return nil, nil
	}
	cp := *s.rec
	cp.TicketIDs = append([]string(nil), s.rec.TicketIDs...)
	return &cp, nil
}

func (s *MemoryStore) Write(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.TicketIDs = append([]string(nil), rec.TicketIDs...)
	s.rec = &cp
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
