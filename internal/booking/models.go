package booking

import (
	"time"

	"github.com/google/uuid"
)

// ReserveRequest asks for a hold on a set of tickets. All-or-nothing: if any
// ticket cannot be held, none are.
type ReserveRequest struct {
	TicketIDs []string `json:"ticket_ids" binding:"required,min=1" validate:"required,min=1,dive,required"`
}

// ReserveResponse is returned by the reserve endpoint. The body keeps this
// shape even on error statuses; Message is user-facing.
type ReserveResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	TicketIDs []string `json:"ticket_ids"`
}

// PurchaseRequest completes a purchase of previously held tickets.
type PurchaseRequest struct {
	TicketIDs []string `json:"ticket_ids" binding:"required,min=1" validate:"required,min=1,dive,required"`
}

// PurchaseResponse is returned by the purchase endpoint, same
// body-even-on-error contract as ReserveResponse. Total is in cents.
type PurchaseResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	TicketIDs  []string `json:"ticket_ids"`
	Total      int      `json:"total"`
	PurchaseID string   `json:"purchase_id"`
}

// Purchase is a completed order.
type Purchase struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TotalCents int       `json:"total_cents" gorm:"not null;check:total_cents >= 0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// PurchaseTicket links a sold ticket to its purchase with the price paid.
type PurchaseTicket struct {
	PurchaseID uuid.UUID `json:"purchase_id" gorm:"type:uuid;not null;index"`
	TicketID   uuid.UUID `json:"ticket_id" gorm:"type:uuid;not null;uniqueIndex"`
	PriceCents int       `json:"price_cents" gorm:"not null"`
}
