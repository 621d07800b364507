package selection

import (
	"errors"
	"reflect"
	"testing"

	"tix/internal/availability"
)

func ticket(id, eventID string, priceCents int) availability.TicketSnapshot {
	return availability.TicketSnapshot{
		ID:         id,
		EventID:    eventID,
		Status:     availability.TicketStatusAvailable,
		PriceCents: priceCents,
	}
}

func TestCoordinator(t *testing.T) {
	t.Parallel()

	t.Run("first ticket anchors the event", func(t *testing.T) {
		c := NewCoordinator()

		if err := c.Add(ticket("t1", "event-1", 100)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := c.EventID(); got != "event-1" {
			t.Fatalf("expected anchor event-1, got %q", got)
		}

		if err := c.Add(ticket("t2", "event-2", 100)); !errors.Is(err, ErrAnchorMismatch) {
			t.Fatalf("expected ErrAnchorMismatch, got %v", err)
		}
		if c.Len() != 1 {
			t.Fatalf("expected selection unchanged, got %d tickets", c.Len())
		}
	})

	t.Run("duplicate add is a no-op", func(t *testing.T) {
		c := NewCoordinator()
		c.Add(ticket("t1", "event-1", 100))
		if err := c.Add(ticket("t1", "event-1", 100)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.Len() != 1 {
			t.Fatalf("expected 1 ticket, got %d", c.Len())
		}
	})

	t.Run("sold and reserved tickets are rejected", func(t *testing.T) {
		c := NewCoordinator()

		sold := ticket("t1", "event-1", 100)
		sold.Status = availability.TicketStatusSold
		if err := c.Add(sold); !errors.Is(err, ErrNotSelectable) {
			t.Fatalf("expected ErrNotSelectable for sold ticket, got %v", err)
		}

		held := ticket("t2", "event-1", 100)
		held.Reserved = true
		if err := c.Add(held); !errors.Is(err, ErrNotSelectable) {
			t.Fatalf("expected ErrNotSelectable for reserved ticket, got %v", err)
		}
	})

	t.Run("remove tolerates absent ids", func(t *testing.T) {
		c := NewCoordinator()
		c.Add(ticket("t1", "event-1", 100))
		c.Add(ticket("t2", "event-1", 250))

		c.Remove("t1")
		c.Remove("nope")

		if got := c.TotalCents(); got != 250 {
			t.Fatalf("expected total 250, got %d", got)
		}
	})

	t.Run("converts to a reservation request in insertion order", func(t *testing.T) {
		c := NewCoordinator()
		c.Add(ticket("t2", "event-1", 100))
		c.Add(ticket("t1", "event-1", 100))

		ids, eventID, err := c.ToReservationRequest()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(ids, []string{"t2", "t1"}) {
			t.Fatalf("expected insertion order [t2 t1], got %v", ids)
		}
		if eventID != "event-1" {
			t.Fatalf("expected event-1, got %q", eventID)
		}
	})

	t.Run("empty selection cannot be committed", func(t *testing.T) {
		c := NewCoordinator()
		if _, _, err := c.ToReservationRequest(); !errors.Is(err, ErrEmptySelection) {
			t.Fatalf("expected ErrEmptySelection, got %v", err)
		}
	})

	t.Run("clear releases the anchor", func(t *testing.T) {
		c := NewCoordinator()
		c.Add(ticket("t1", "event-1", 100))
		c.Clear()

		if err := c.Add(ticket("t9", "event-2", 100)); err != nil {
			t.Fatalf("expected re-anchor after clear, got %v", err)
		}
		if got := c.EventID(); got != "event-2" {
			t.Fatalf("expected event-2, got %q", got)
		}
	})
}
