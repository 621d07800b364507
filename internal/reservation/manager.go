package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tix/internal/clock"
	"tix/pkg/logger"
)

// Endpoint is the external reservation call. Implementations must return the
// ids the server actually confirmed; on a server-side rejection or transport
// failure they return an error which the manager propagates verbatim without
// retrying (a failed hold usually means someone else took the seat).
type Endpoint interface {
	Reserve(ctx context.Context, ticketIDs []string) ([]string, error)
}

const (
	// DefaultTTL is how long a hold stays valid after being (re)established.
	DefaultTTL = 180 * time.Second
)

// Manager owns the client-held reservation state: which tickets are held, for
// which event, and how long until the hold lapses. All mutation funnels
// through one manager instance; Reserve and Clear are serialized, reads
// always go back to the Store so a concurrent watch tick never acts on stale
// state.
type Manager struct {
	store    Store
	clock    clock.Clock
	endpoint Endpoint
	ttl      time.Duration
	log      *logger.Logger

	mu sync.Mutex
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithTTL overrides the default reservation TTL.
func WithTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *logger.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager wires a Manager from its dependencies.
func NewManager(store Store, clk clock.Clock, endpoint Endpoint, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		clock:    clk,
		endpoint: endpoint,
		ttl:      DefaultTTL,
		log:      logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured reservation time-to-live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// GetValid reads the store, applies the TTL check and purges an expired
// record. It returns nil when no valid reservation exists.
func (m *Manager) GetValid() (*Record, error) {
	st, err := m.Status()
	if err != nil {
		return nil, err
	}
	return st.Record, nil
}

// Status reads the store and reports validity plus remaining seconds in one
// pass. An expired record is purged and reported with Expired set so the
// watch timer can tell expiry apart from an explicit clear.
func (m *Manager) Status() (Status, error) {
	rec, err := m.store.Read()
	if err != nil {
		return Status{}, err
	}
	if rec == nil {
		return Status{}, nil
	}

	remaining := m.RemainingSeconds(rec)
	if remaining <= 0 {
		m.log.Info("Reservation expired, purging record",
			slog.String("event_id", rec.EventID),
			slog.Int("ticket_count", len(rec.TicketIDs)),
		)
		if err := m.store.Clear(); err != nil {
			return Status{}, err
		}
		return Status{Expired: true}, nil
	}

	return Status{Record: rec, Remaining: remaining}, nil
}

// RemainingSeconds computes how many whole seconds of the TTL are left for
// rec. Pure function of the injected clock; never negative.
func (m *Manager) RemainingSeconds(rec *Record) int {
	elapsed := int(m.clock.Now().UnixMilli()-rec.ReservedAt) / 1000
	remaining := int(m.ttl.Seconds()) - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reserve places or extends a hold on ticketIDs for eventID.
//
// Merge rules: a valid existing record for a different event fails with
// ErrCrossEventConflict and leaves the store untouched. If every requested
// ticket is already held, the hold is refreshed locally without calling the
// endpoint. Otherwise only the not-yet-held ids are sent to the endpoint and
// the confirmed set is unioned with the existing one. The confirmed set
// returned by the server is authoritative.
func (m *Manager) Reserve(ctx context.Context, ticketIDs []string, eventID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := dedupe(ticketIDs)
	if len(ids) == 0 {
		return nil, ErrNoTickets
	}
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	existing, err := m.GetValid()
	if err != nil {
		return nil, err
	}

	if existing != nil && existing.EventID != eventID {
		return nil, ErrCrossEventConflict
	}

	var newOnly []string
	for _, id := range ids {
		if existing == nil || !existing.HasTicket(id) {
			newOnly = append(newOnly, id)
		}
	}

	// Everything requested is already held: refresh the hold locally, no
	// redundant server call.
	if existing != nil && len(newOnly) == 0 {
		rec := &Record{
			TicketIDs:  union(existing.TicketIDs, ids),
			EventID:    eventID,
			ReservedAt: m.clock.Now().UnixMilli(),
		}
		if err := m.store.Write(rec); err != nil {
			return nil, err
		}
		m.log.LogReservationMerged(ctx, eventID, rec.TicketIDs, 0)
		return rec, nil
	}

	confirmed, err := m.endpoint.Reserve(ctx, newOnly)
	if err != nil {
		return nil, err
	}

	merged := confirmed
	if existing != nil {
		merged = union(existing.TicketIDs, confirmed)
	}

	rec := &Record{
		TicketIDs:  merged,
		EventID:    eventID,
		ReservedAt: m.clock.Now().UnixMilli(),
	}
	if err := m.store.Write(rec); err != nil {
		return nil, err
	}
	m.log.LogReservationMerged(ctx, eventID, rec.TicketIDs, len(confirmed))
	return rec, nil
}

// Clear drops the reservation slot. Idempotent.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Clear()
}

// dedupe returns ids with duplicates and empty entries removed, preserving
// first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// union merges b into a, keeping a's order and dropping duplicates.
func union(a, b []string) []string {
	out := append([]string(nil), a...)
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
