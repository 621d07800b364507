// tixwatch subscribes to an event's live availability stream, holds the
// first few selectable tickets, and prints the countdown until the hold
// expires or the process is interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tix/internal/availability"
	"tix/internal/booking"
	"tix/internal/clock"
	"tix/internal/reservation"
	"tix/internal/selection"
	"tix/internal/shared/config"
	"tix/internal/stream"
	"tix/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	var (
		eventID = flag.String("event", "", "event id to watch (required)")
		count   = flag.Int("count", 2, "number of tickets to hold")
		baseURL = flag.String("api", "http://localhost:8080/api/v1", "API base URL")
		buy     = flag.Bool("buy", false, "purchase the held tickets instead of letting them lapse")
	)
	flag.Parse()

	if *eventID == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	appLogger := logger.GetDefault()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	streamClient := stream.NewClient(*baseURL,
		stream.WithBaseReconnectDelay(cfg.Stream.BaseReconnectDelay),
		stream.WithMaxReconnectAttempts(cfg.Stream.MaxReconnectAttempts),
		stream.WithLogger(appLogger),
	)
	sub := streamClient.Subscribe(ctx, *eventID)
	defer sub.Unsubscribe()

	fmt.Printf("Waiting for availability snapshot for event %s...\n", *eventID)

	var snapshot []availability.TicketSnapshot
	select {
	case <-ctx.Done():
		return
	case snap, ok := <-sub.Snapshots():
		if !ok {
			log.Fatalf("stream ended before the first snapshot: %v", sub.Err())
		}
		snapshot = snap
	}

	// Pick the first selectable tickets from the snapshot
	coordinator := selection.NewCoordinator()
	for _, ticket := range snapshot {
		if coordinator.Len() >= *count {
			break
		}
		if err := coordinator.Add(ticket); err != nil {
			continue
		}
		fmt.Printf("  Selected %s (%s, %d cents)\n", ticket.ID, ticket.TicketTypeDisplayName, ticket.PriceCents)
	}

	ticketIDs, selEventID, err := coordinator.ToReservationRequest()
	if err != nil {
		log.Fatalf("nothing selectable in the snapshot: %v", err)
	}

	bookingClient := booking.NewClient(*baseURL)
	store := reservation.NewFileStore(cfg.Reservation.StorePath, appLogger)
	manager := reservation.NewManager(store, clock.NewSystem(), bookingClient,
		reservation.WithTTL(cfg.Reservation.TTL),
		reservation.WithLogger(appLogger),
	)

	record, err := manager.Reserve(ctx, ticketIDs, selEventID)
	if err != nil {
		log.Fatalf("reserve failed: %v", err)
	}
	fmt.Printf("Holding %d tickets (total %d cents)\n", len(record.TicketIDs), coordinator.TotalCents())

	if *buy {
		resp, err := bookingClient.Purchase(ctx, record.TicketIDs)
		if err != nil {
			log.Fatalf("purchase failed: %v", err)
		}
		if err := manager.Clear(); err != nil {
			appLogger.WithError(err).Warn("Failed to clear reservation after purchase")
		}
		fmt.Printf("Purchased! id=%s total=%d cents\n", resp.PurchaseID, resp.Total)
		return
	}

	watcher := reservation.NewWatcher(manager,
		reservation.WithUrgentThreshold(cfg.Reservation.UrgentThreshold),
		reservation.WithWatcherLogger(appLogger),
	)
	updates := watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nInterrupted; hold left in place")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			switch {
			case update.Expired:
				fmt.Println("Hold expired")
				return
			case update.Urgent:
				fmt.Printf("⚠️  %ds left on hold\n", update.Remaining)
			case update.Valid:
				fmt.Printf("%ds left on hold (%d tickets)\n", update.Remaining, len(update.TicketIDs))
			}
		}
	}
}
