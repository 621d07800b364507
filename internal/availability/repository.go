package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the persistence contract for ticket availability reads
type Repository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	GetEvents(ctx context.Context) ([]Event, error)
	GetTicketsWithTypes(ctx context.Context, eventID uuid.UUID) ([]TicketSnapshot, error)
}

// repository implements Repository using GORM
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new availability repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return &event, nil
}

func (r *repository) GetEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := r.db.WithContext(ctx).Order("start_date asc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, nil
}

// GetTicketsWithTypes returns the full ticket set for an event joined with
// type names and prices. The Reserved flag is left false; the service layer
// fills it in from the lock manager.
func (r *repository) GetTicketsWithTypes(ctx context.Context, eventID uuid.UUID) ([]TicketSnapshot, error) {
	type row struct {
		ID           uuid.UUID
		EventID      uuid.UUID
		TicketTypeID uuid.UUID
		Status       TicketStatus
		Name         string
		DisplayName  string
		PriceCents   int
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Table("tickets").
		Select("tickets.id, tickets.event_id, tickets.ticket_type_id, tickets.status, ticket_types.name, ticket_types.display_name, ticket_types.price_cents").
		Joins("JOIN ticket_types ON ticket_types.id = tickets.ticket_type_id").
		Where("tickets.event_id = ?", eventID).
		Order("ticket_types.price_cents desc, tickets.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets: %w", err)
	}

	snapshots := make([]TicketSnapshot, len(rows))
	for i, row := range rows {
		snapshots[i] = TicketSnapshot{
			ID:                    row.ID.String(),
			EventID:               row.EventID.String(),
			TicketTypeID:          row.TicketTypeID.String(),
			Status:                row.Status,
			TicketTypeName:        row.Name,
			TicketTypeDisplayName: row.DisplayName,
			PriceCents:            row.PriceCents,
		}
	}
	return snapshots, nil
}
