package booking

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"tix/internal/availability"
)

type fakeRepo struct {
	tickets       map[uuid.UUID]availability.Ticket
	prices        map[uuid.UUID]int
	purchases     []*Purchase
	completeErr   error
	purchaseItems [][]PurchaseTicket
}

func (f *fakeRepo) GetTicketsByIDs(ctx context.Context, ids []uuid.UUID) ([]availability.Ticket, error) {
	var out []availability.Ticket
	for _, id := range ids {
		if t, ok := f.tickets[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetTicketPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return f.prices, nil
}

func (f *fakeRepo) CompletePurchase(ctx context.Context, purchase *Purchase, items []PurchaseTicket) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.purchases = append(f.purchases, purchase)
	f.purchaseItems = append(f.purchaseItems, items)
	return nil
}

func (f *fakeRepo) GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, []PurchaseTicket, error) {
	for i, p := range f.purchases {
		if p.ID == id {
			return p, f.purchaseItems[i], nil
		}
	}
	return nil, nil, ErrHoldRequired
}

type fakeLocks struct {
	held       map[string]bool
	reserveErr error
	released   [][]string
}

func (f *fakeLocks) Reserve(ctx context.Context, ids []string) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	for _, id := range ids {
		f.held[id] = true
	}
	return nil
}

func (f *fakeLocks) Release(ctx context.Context, ids []string) error {
	f.released = append(f.released, ids)
	for _, id := range ids {
		delete(f.held, id)
	}
	return nil
}

func (f *fakeLocks) AllLocked(ctx context.Context, ids []string) (bool, error) {
	for _, id := range ids {
		if !f.held[id] {
			return false, nil
		}
	}
	return true, nil
}

func TestService_Reserve(t *testing.T) {
	t.Parallel()

	t1 := uuid.New()
	t2 := uuid.New()

	makeService := func() (Service, *fakeRepo, *fakeLocks) {
		repo := &fakeRepo{
			tickets: map[uuid.UUID]availability.Ticket{
				t1: {ID: t1, Status: availability.TicketStatusAvailable},
				t2: {ID: t2, Status: availability.TicketStatusAvailable},
			},
			prices: map[uuid.UUID]int{t1: 1000, t2: 2500},
		}
		locks := &fakeLocks{held: map[string]bool{}}
		return NewService(repo, locks, nil, nil), repo, locks
	}

	t.Run("reserves available tickets", func(t *testing.T) {
		svc, _, locks := makeService()

		resp, status := svc.Reserve(context.Background(), ReserveRequest{TicketIDs: []string{t1.String(), t2.String()}})
		if status != http.StatusOK || !resp.Success {
			t.Fatalf("expected 200 success, got %d %+v", status, resp)
		}
		if !locks.held[t1.String()] || !locks.held[t2.String()] {
			t.Fatalf("expected both tickets locked, got %+v", locks.held)
		}
	})

	t.Run("conflicting hold returns 409 without partial locks", func(t *testing.T) {
		svc, _, locks := makeService()
		locks.reserveErr = ErrTicketsLocked

		resp, status := svc.Reserve(context.Background(), ReserveRequest{TicketIDs: []string{t1.String()}})
		if status != http.StatusConflict || resp.Success {
			t.Fatalf("expected 409 failure, got %d %+v", status, resp)
		}
		if resp.Message != "one or more tickets are already reserved" {
			t.Fatalf("unexpected message %q", resp.Message)
		}
	})

	t.Run("unknown ticket returns 404", func(t *testing.T) {
		svc, _, _ := makeService()
		missing := uuid.New()

		resp, status := svc.Reserve(context.Background(), ReserveRequest{TicketIDs: []string{missing.String()}})
		if status != http.StatusNotFound || resp.Success {
			t.Fatalf("expected 404 failure, got %d %+v", status, resp)
		}
	})

	t.Run("sold ticket returns 410", func(t *testing.T) {
		svc, repo, _ := makeService()
		sold := repo.tickets[t1]
		sold.Status = availability.TicketStatusSold
		repo.tickets[t1] = sold

		_, status := svc.Reserve(context.Background(), ReserveRequest{TicketIDs: []string{t1.String()}})
		if status != http.StatusGone {
			t.Fatalf("expected 410, got %d", status)
		}
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		svc, _, _ := makeService()
		_, status := svc.Reserve(context.Background(), ReserveRequest{TicketIDs: []string{"not-a-uuid"}})
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
	})
}

func TestService_Purchase(t *testing.T) {
	t.Parallel()

	t1 := uuid.New()
	t2 := uuid.New()

	makeService := func() (Service, *fakeRepo, *fakeLocks) {
		repo := &fakeRepo{
			tickets: map[uuid.UUID]availability.Ticket{
				t1: {ID: t1, Status: availability.TicketStatusAvailable},
				t2: {ID: t2, Status: availability.TicketStatusAvailable},
			},
			prices: map[uuid.UUID]int{t1: 1000, t2: 2500},
		}
		locks := &fakeLocks{held: map[string]bool{}}
		return NewService(repo, locks, nil, nil), repo, locks
	}

	t.Run("purchase completes a held reservation", func(t *testing.T) {
		svc, repo, locks := makeService()
		ids := []string{t1.String(), t2.String()}
		if _, status := svc.Reserve(context.Background(), ReserveRequest{TicketIDs: ids}); status != http.StatusOK {
			t.Fatalf("seed reserve failed with %d", status)
		}

		resp, status := svc.Purchase(context.Background(), PurchaseRequest{TicketIDs: ids})
		if status != http.StatusOK || !resp.Success {
			t.Fatalf("expected 200 success, got %d %+v", status, resp)
		}
		if resp.Total != 3500 {
			t.Fatalf("expected total 3500, got %d", resp.Total)
		}
		if resp.PurchaseID == "" {
			t.Fatalf("expected purchase id")
		}
		if len(repo.purchases) != 1 || repo.purchases[0].TotalCents != 3500 {
			t.Fatalf("expected persisted purchase, got %+v", repo.purchases)
		}
		if len(locks.released) != 1 || !reflect.DeepEqual(locks.released[0], ids) {
			t.Fatalf("expected holds released after purchase, got %+v", locks.released)
		}
	})

	t.Run("purchase without a hold returns 410", func(t *testing.T) {
		svc, _, _ := makeService()

		resp, status := svc.Purchase(context.Background(), PurchaseRequest{TicketIDs: []string{t1.String()}})
		if status != http.StatusGone || resp.Success {
			t.Fatalf("expected 410 failure, got %d %+v", status, resp)
		}
		if resp.Message != "reservation expired or missing; reserve the tickets again before purchasing" {
			t.Fatalf("unexpected message %q", resp.Message)
		}
	})

	t.Run("partial hold is rejected", func(t *testing.T) {
		svc, _, locks := makeService()
		locks.held[t1.String()] = true

		_, status := svc.Purchase(context.Background(), PurchaseRequest{TicketIDs: []string{t1.String(), t2.String()}})
		if status != http.StatusGone {
			t.Fatalf("expected 410 for partial hold, got %d", status)
		}
	})

	t.Run("declined payment returns 402 and keeps the hold", func(t *testing.T) {
		_, repo, locks := makeService()
		svc := NewService(repo, locks, MockCharger{DeclineRate: 1}, nil)
		ids := []string{t1.String()}
		if _, status := svc.Reserve(context.Background(), ReserveRequest{TicketIDs: ids}); status != http.StatusOK {
			t.Fatalf("seed reserve failed with %d", status)
		}

		resp, status := svc.Purchase(context.Background(), PurchaseRequest{TicketIDs: ids})
		if status != http.StatusPaymentRequired || resp.Success {
			t.Fatalf("expected 402 failure, got %d %+v", status, resp)
		}
		if !strings.HasPrefix(resp.Message, "payment failed:") {
			t.Fatalf("unexpected message %q", resp.Message)
		}
		if resp.Total != 1000 {
			t.Fatalf("expected the priced total even on decline, got %d", resp.Total)
		}
		if len(repo.purchases) != 0 {
			t.Fatalf("expected no recorded purchase, got %+v", repo.purchases)
		}
		if len(locks.released) != 0 {
			t.Fatalf("expected holds kept for a payment retry, got %+v", locks.released)
		}
	})

	t.Run("failed transaction reports conflict and keeps the hold", func(t *testing.T) {
		svc, repo, locks := makeService()
		ids := []string{t1.String()}
		if _, status := svc.Reserve(context.Background(), ReserveRequest{TicketIDs: ids}); status != http.StatusOK {
			t.Fatalf("seed reserve failed with %d", status)
		}
		repo.completeErr = ErrHoldRequired

		_, status := svc.Purchase(context.Background(), PurchaseRequest{TicketIDs: ids})
		if status != http.StatusConflict {
			t.Fatalf("expected 409, got %d", status)
		}
		if len(locks.released) != 0 {
			t.Fatalf("expected holds kept after failed transaction, got %+v", locks.released)
		}
	})

	t.Run("get purchase returns the stored record", func(t *testing.T) {
		svc, _, _ := makeService()
		ids := []string{t1.String()}
		svc.Reserve(context.Background(), ReserveRequest{TicketIDs: ids})
		resp, _ := svc.Purchase(context.Background(), PurchaseRequest{TicketIDs: ids})

		id := uuid.MustParse(resp.PurchaseID)
		purchase, items, err := svc.GetPurchase(context.Background(), id)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if purchase.TotalCents != 1000 || len(items) != 1 {
			t.Fatalf("unexpected purchase %+v items %+v", purchase, items)
		}
	})
}
