package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tix/internal/availability"
)

// Repository defines the persistence contract for booking business logic
type Repository interface {
	GetTicketsByIDs(ctx context.Context, ids []uuid.UUID) ([]availability.Ticket, error)
	GetTicketPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
	CompletePurchase(ctx context.Context, purchase *Purchase, items []PurchaseTicket) error
	GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, []PurchaseTicket, error)
}

// repository implements Repository using GORM
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new booking repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetTicketsByIDs(ctx context.Context, ids []uuid.UUID) ([]availability.Ticket, error) {
	var tickets []availability.Ticket
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tickets: %w", err)
	}
	return tickets, nil
}

func (r *repository) GetTicketPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	type row struct {
		ID         uuid.UUID
		PriceCents int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("tickets").
		Select("tickets.id, ticket_types.price_cents").
		Joins("JOIN ticket_types ON ticket_types.id = tickets.ticket_type_id").
		Where("tickets.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticket prices: %w", err)
	}

	prices := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		prices[row.ID] = row.PriceCents
	}
	return prices, nil
}

// CompletePurchase marks the tickets sold and records the purchase in one
// transaction. It fails if any ticket was sold out from under the hold.
func (r *repository) CompletePurchase(ctx context.Context, purchase *Purchase, items []PurchaseTicket) error {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.TicketID
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&availability.Ticket{}).
			Where("id IN ? AND status = ?", ids, availability.TicketStatusAvailable).
			Update("status", availability.TicketStatusSold)
		if res.Error != nil {
			return fmt.Errorf("failed to mark tickets sold: %w", res.Error)
		}
		if res.RowsAffected != int64(len(ids)) {
			return fmt.Errorf("only %d of %d tickets could be sold", res.RowsAffected, len(ids))
		}

		if err := tx.Create(purchase).Error; err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to record purchase tickets: %w", err)
		}
		return nil
	})
}

func (r *repository) GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, []PurchaseTicket, error) {
	var purchase Purchase
	if err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to fetch purchase: %w", err)
	}
	var items []PurchaseTicket
	if err := r.db.WithContext(ctx).Where("purchase_id = ?", id).Find(&items).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to fetch purchase tickets: %w", err)
	}
	return &purchase, items, nil
}
