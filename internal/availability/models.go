package availability

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the lifecycle state of a single ticket.
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusSold      TicketStatus = "sold"
)

// Event is an event with a fixed ticket inventory.
type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Venue       string    `json:"venue" gorm:"not null;size:255"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TicketType is a price tier within an event (vip, ga, front row).
type TicketType struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:100;uniqueIndex"`
	DisplayName string    `json:"display_name" gorm:"not null;size:255"`
	PriceCents  int       `json:"price_cents" gorm:"not null;check:price_cents >= 0"`
}

// Ticket is one sellable seat.
type Ticket struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID      uuid.UUID    `json:"event_id" gorm:"type:uuid;not null;index"`
	TicketTypeID uuid.UUID    `json:"ticket_type_id" gorm:"type:uuid;not null"`
	Status       TicketStatus `json:"status" gorm:"type:varchar(20);default:'available';index"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TicketSnapshot is the wire shape pushed on the availability stream and
// returned by the ticket listing endpoint. Reserved reflects another actor's
// in-flight hold and is advisory; the feed is authoritative for the whole
// set on every message.
type TicketSnapshot struct {
	ID                    string       `json:"id"`
	EventID               string       `json:"event_id"`
	TicketTypeID          string       `json:"ticket_type_id"`
	Status                TicketStatus `json:"status"`
	Reserved              bool         `json:"reserved"`
	TicketTypeName        string       `json:"ticket_type_name"`
	TicketTypeDisplayName string       `json:"ticket_type_display_name"`
	PriceCents            int          `json:"ticket_type_price_cents"`
}

// Selectable reports whether the ticket can still be added to a selection.
func (t TicketSnapshot) Selectable() bool {
	return t.Status == TicketStatusAvailable && !t.Reserved
}
