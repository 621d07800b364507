package booking

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"tix/internal/availability"
	"tix/internal/notifications"
	"tix/pkg/logger"
)

// Locks is the subset of the lock manager the booking service needs
// (narrowed for testability).
type Locks interface {
	Reserve(ctx context.Context, ticketIDs []string) error
	Release(ctx context.Context, ticketIDs []string) error
	AllLocked(ctx context.Context, ticketIDs []string) (bool, error)
}

// Service interface defines the contract for booking business logic. Reserve
// and Purchase return the response body together with the HTTP status it
// should be written with: the body is present even for failures, because the
// client decodes it regardless of status.
type Service interface {
	Reserve(ctx context.Context, req ReserveRequest) (*ReserveResponse, int)
	Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResponse, int)
	GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, []PurchaseTicket, error)
}

// service implements the Service interface
type service struct {
	repo     Repository
	locks    Locks
	charger  Charger
	producer notifications.Producer
	log      *logger.Logger
}

// NewService creates a new booking service. A nil charger approves every
// purchase; a nil producer drops booking events.
func NewService(repo Repository, locks Locks, charger Charger, producer notifications.Producer) Service {
	if charger == nil {
		charger = MockCharger{}
	}
	if producer == nil {
		producer = notifications.NopProducer{}
	}
	return &service{
		repo:     repo,
		locks:    locks,
		charger:  charger,
		producer: producer,
		log:      logger.GetDefault(),
	}
}

// Reserve validates the tickets and acquires all-or-nothing holds on them.
func (s *service) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResponse, int) {
	ids, _, resp, status := s.validateTickets(ctx, req.TicketIDs)
	if resp != nil {
		return &ReserveResponse{Success: false, Message: resp.Message, TicketIDs: []string{}}, status
	}

	if err := s.locks.Reserve(ctx, ids); err != nil {
		if err == ErrTicketsLocked {
			return &ReserveResponse{
				Success:   false,
				Message:   "one or more tickets are already reserved",
				TicketIDs: []string{},
			}, http.StatusConflict
		}
		s.log.Error("Lock acquisition failed", slog.String("error", err.Error()))
		return &ReserveResponse{
			Success:   false,
			Message:   "failed to reserve tickets",
			TicketIDs: []string{},
		}, http.StatusInternalServerError
	}

	s.log.LogTicketsReserved(ctx, ids)
	s.publish(ctx, notifications.NewBookingEvent(notifications.BookingEventTicketsReserved, ids))

	return &ReserveResponse{
		Success:   true,
		Message:   "tickets reserved",
		TicketIDs: ids,
	}, http.StatusOK
}

// Purchase completes the sale of previously held tickets: every ticket must
// still carry a hold, payment is charged before the sale is recorded, the
// sale is transactional, and the holds are released afterwards.
func (s *service) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResponse, int) {
	ids, uuids, errResp, status := s.validateTickets(ctx, req.TicketIDs)
	if errResp != nil {
		return &PurchaseResponse{Success: false, Message: errResp.Message, TicketIDs: []string{}}, status
	}

	held, err := s.locks.AllLocked(ctx, ids)
	if err != nil {
		s.log.Error("Lock check failed", slog.String("error", err.Error()))
		return &PurchaseResponse{
			Success:   false,
			Message:   "failed to verify reservation",
			TicketIDs: []string{},
		}, http.StatusInternalServerError
	}
	if !held {
		return &PurchaseResponse{
			Success:   false,
			Message:   "reservation expired or missing; reserve the tickets again before purchasing",
			TicketIDs: []string{},
		}, http.StatusGone
	}

	prices, err := s.repo.GetTicketPrices(ctx, uuids)
	if err != nil {
		s.log.Error("Price lookup failed", slog.String("error", err.Error()))
		return &PurchaseResponse{
			Success:   false,
			Message:   "failed to price tickets",
			TicketIDs: []string{},
		}, http.StatusInternalServerError
	}

	purchase := &Purchase{ID: uuid.New()}
	items := make([]PurchaseTicket, len(uuids))
	for i, id := range uuids {
		price := prices[id]
		purchase.TotalCents += price
		items[i] = PurchaseTicket{PurchaseID: purchase.ID, TicketID: id, PriceCents: price}
	}

	if err := s.charger.Charge(ctx, purchase.TotalCents); err != nil {
		// The holds stay in place so the buyer can retry payment until the
		// TTL lapses.
		s.log.Warn("Payment declined", slog.Int("total_cents", purchase.TotalCents), slog.String("error", err.Error()))
		return &PurchaseResponse{
			Success:   false,
			Message:   fmt.Sprintf("payment failed: %v", err),
			TicketIDs: []string{},
			Total:     purchase.TotalCents,
		}, http.StatusPaymentRequired
	}

	if err := s.repo.CompletePurchase(ctx, purchase, items); err != nil {
		s.log.Error("Purchase transaction failed", slog.String("error", err.Error()))
		return &PurchaseResponse{
			Success:   false,
			Message:   "failed to complete purchase",
			TicketIDs: []string{},
		}, http.StatusConflict
	}

	// The tickets are sold; a failed lock release only delays the advisory
	// reserved flag until the TTL runs out.
	if err := s.locks.Release(ctx, ids); err != nil {
		s.log.Warn("Failed to release locks after purchase", slog.String("error", err.Error()))
	}

	s.log.LogTicketsPurchased(ctx, purchase.ID.String(), ids, purchase.TotalCents)
	event := notifications.NewBookingEvent(notifications.BookingEventTicketsPurchased, ids)
	event.PurchaseID = purchase.ID.String()
	event.TotalCents = purchase.TotalCents
	s.publish(ctx, event)

	return &PurchaseResponse{
		Success:    true,
		Message:    "purchase complete",
		TicketIDs:  ids,
		Total:      purchase.TotalCents,
		PurchaseID: purchase.ID.String(),
	}, http.StatusOK
}

func (s *service) GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, []PurchaseTicket, error) {
	return s.repo.GetPurchase(ctx, id)
}

// validateTickets dedupes and parses the requested ids and checks they exist
// and are not sold. On failure it returns a response message and status; on
// success both id representations.
func (s *service) validateTickets(ctx context.Context, ticketIDs []string) ([]string, []uuid.UUID, *ReserveResponse, int) {
	seen := make(map[string]struct{}, len(ticketIDs))
	ids := make([]string, 0, len(ticketIDs))
	uuids := make([]uuid.UUID, 0, len(ticketIDs))
	for _, raw := range ticketIDs {
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, &ReserveResponse{Message: fmt.Sprintf("invalid ticket id %q", raw)}, http.StatusBadRequest
		}
		ids = append(ids, raw)
		uuids = append(uuids, id)
	}
	if len(ids) == 0 {
		return nil, nil, &ReserveResponse{Message: "no tickets provided"}, http.StatusBadRequest
	}

	tickets, err := s.repo.GetTicketsByIDs(ctx, uuids)
	if err != nil {
		s.log.Error("Ticket lookup failed", slog.String("error", err.Error()))
		return nil, nil, &ReserveResponse{Message: "failed to look up tickets"}, http.StatusInternalServerError
	}

	byID := make(map[uuid.UUID]availability.Ticket, len(tickets))
	for _, t := range tickets {
		byID[t.ID] = t
	}
	for i, id := range uuids {
		ticket, ok := byID[id]
		if !ok {
			return nil, nil, &ReserveResponse{Message: fmt.Sprintf("ticket %s not found", ids[i])}, http.StatusNotFound
		}
		if ticket.Status == availability.TicketStatusSold {
			return nil, nil, &ReserveResponse{Message: fmt.Sprintf("ticket %s is already sold", ids[i])}, http.StatusGone
		}
	}

	return ids, uuids, nil, 0
}

func (s *service) publish(ctx context.Context, event *notifications.BookingEvent) {
	if err := s.producer.PublishBookingEvent(ctx, event); err != nil {
		s.log.Warn("Failed to publish booking event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
	}
}
