package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tix/pkg/cache"
	"tix/pkg/logger"
)

// Locker exposes the advisory hold state of tickets (narrowed from the
// booking lock manager to avoid a package cycle).
type Locker interface {
	LockedSet(ctx context.Context, ticketIDs []string) (map[string]bool, error)
}

// Service interface defines the contract for availability reads
type Service interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	GetEvents(ctx context.Context) ([]Event, error)
	GetSnapshots(ctx context.Context, eventID uuid.UUID) ([]TicketSnapshot, error)
}

// service implements the Service interface
type service struct {
	repo     Repository
	locker   Locker
	cache    cache.Service
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService creates a new availability service. cacheService may be nil to
// disable snapshot caching (every read then hits the database, which is what
// the stream endpoint does between cache expirations anyway).
func NewService(repo Repository, locker Locker, cacheService cache.Service, cacheTTL time.Duration) Service {
	return &service{
		repo:     repo,
		locker:   locker,
		cache:    cacheService,
		cacheTTL: cacheTTL,
		log:      logger.GetDefault(),
	}
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetEvent(ctx, id)
}

func (s *service) GetEvents(ctx context.Context) ([]Event, error) {
	return s.repo.GetEvents(ctx)
}

// GetSnapshots returns the complete ticket set for eventID enriched with the
// advisory reserved flag. Snapshots are cached briefly so the stream
// endpoint's per-subscriber tickers do not multiply database load.
func (s *service) GetSnapshots(ctx context.Context, eventID uuid.UUID) ([]TicketSnapshot, error) {
	cacheKey := fmt.Sprintf("availability:snapshot:%s", eventID)

	if s.cache != nil {
		var cached []TicketSnapshot
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	snapshots, err := s.repo.GetTicketsWithTypes(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := s.enrichWithLocks(ctx, snapshots); err != nil {
		// Availability data is still useful without the advisory flags.
		s.log.Warn("Failed to enrich snapshot with lock state",
			slog.String("event_id", eventID.String()),
			slog.String("error", err.Error()),
		)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, snapshots, s.cacheTTL); err != nil {
			s.log.Debug("Failed to cache snapshot", slog.String("error", err.Error()))
		}
	}
	return snapshots, nil
}

func (s *service) enrichWithLocks(ctx context.Context, snapshots []TicketSnapshot) error {
	if s.locker == nil || len(snapshots) == 0 {
		return nil
	}
	ids := make([]string, len(snapshots))
	for i, snap := range snapshots {
		ids[i] = snap.ID
	}
	locked, err := s.locker.LockedSet(ctx, ids)
	if err != nil {
		return err
	}
	for i := range snapshots {
		snapshots[i].Reserved = locked[snapshots[i].ID]
	}
	return nil
}
