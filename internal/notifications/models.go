package notifications

import (
	"time"

	"github.com/google/uuid"
)

// BookingEventType identifies what happened to a set of tickets.
type BookingEventType string

const (
	BookingEventTicketsReserved  BookingEventType = "TICKETS_RESERVED"
	BookingEventTicketsPurchased BookingEventType = "TICKETS_PURCHASED"
)

// BookingEvent is the message published to Kafka when tickets are reserved
// or purchased. Downstream consumers (waitlists, email, analytics) key off
// Type.
type BookingEvent struct {
	ID         uuid.UUID        `json:"id"`
	Type       BookingEventType `json:"type"`
	TicketIDs  []string         `json:"ticket_ids"`
	PurchaseID string           `json:"purchase_id,omitempty"`
	TotalCents int              `json:"total_cents,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewBookingEvent returns a BookingEvent stamped with a fresh id and the
// current time.
func NewBookingEvent(eventType BookingEventType, ticketIDs []string) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		TicketIDs:  ticketIDs,
		OccurredAt: time.Now().UTC(),
	}
}
