package selection

import (
	"errors"
	"sync"

	"tix/internal/availability"
)

var (
	// ErrAnchorMismatch is returned when a ticket from a different event is
	// added to a non-empty selection. The first ticket anchors the event;
	// the selection must be cleared before switching.
	ErrAnchorMismatch = errors.New("ticket belongs to a different event than the current selection")

	// ErrNotSelectable is returned for tickets that are sold or carry
	// another actor's in-flight hold.
	ErrNotSelectable = errors.New("ticket is not selectable")

	// ErrEmptySelection is returned when an empty selection is committed.
	ErrEmptySelection = errors.New("no tickets selected")
)

// Coordinator accumulates the tickets a user is choosing before committing
// to a reservation request. Session-local, never persisted, and it never
// talks to the network itself; the caller hands the request off to the
// reservation manager on explicit commit.
type Coordinator struct {
	mu      sync.Mutex
	tickets []availability.TicketSnapshot
}

// NewCoordinator returns an empty selection.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Add appends ticket to the selection. Adding a ticket that is already
// selected is a no-op; a sold or reserved ticket fails with ErrNotSelectable
// and a ticket from another event fails with ErrAnchorMismatch.
func (c *Coordinator) Add(ticket availability.TicketSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tickets) > 0 && c.tickets[0].EventID != ticket.EventID {
		return ErrAnchorMismatch
	}
	if !ticket.Selectable() {
		return ErrNotSelectable
	}
	for _, t := range c.tickets {
		if t.ID == ticket.ID {
			return nil
		}
	}
	c.tickets = append(c.tickets, ticket)
	return nil
}

// Remove drops the ticket with the given id. Removing an absent id is a
// no-op.
func (c *Coordinator) Remove(ticketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.tickets {
		if t.ID == ticketID {
			c.tickets = append(c.tickets[:i], c.tickets[i+1:]...)
			return
		}
	}
}

// Tickets returns the selected tickets in insertion order.
func (c *Coordinator) Tickets() []availability.TicketSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]availability.TicketSnapshot(nil), c.tickets...)
}

// Len returns the number of selected tickets.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickets)
}

// EventID returns the anchor event id, or "" for an empty selection.
func (c *Coordinator) EventID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickets) == 0 {
		return ""
	}
	return c.tickets[0].EventID
}

// TotalCents sums the selected ticket prices.
func (c *Coordinator) TotalCents() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, t := range c.tickets {
		total += t.PriceCents
	}
	return total
}

// ToReservationRequest converts the selection into the id set and event id
// the reservation manager expects.
func (c *Coordinator) ToReservationRequest() ([]string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickets) == 0 {
		return nil, "", ErrEmptySelection
	}
	ids := make([]string, len(c.tickets))
	for i, t := range c.tickets {
		ids[i] = t.ID
	}
	return ids, c.tickets[0].EventID, nil
}

// Clear empties the selection so a different event can be anchored.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickets = nil
}
