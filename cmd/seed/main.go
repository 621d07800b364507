package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"tix/internal/availability"
	"tix/internal/shared/config"
	"tix/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Tix Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"purchase_tickets",
		"purchases",
		"tickets",
		"ticket_types",
		"events",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	typeIDs, err := s.SeedTicketTypes()
	if err != nil {
		return fmt.Errorf("failed to seed ticket types: %w", err)
	}

	if err := s.SeedEvents(typeIDs); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	// Clear Redis so no stale ticket holds survive the reseed
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis: %v", err)
	}

	return nil
}

// SeedTicketTypes creates the shared ticket tiers
func (s *Seeder) SeedTicketTypes() (map[string]uuid.UUID, error) {
	fmt.Println("  🎟️ Seeding ticket types...")

	typeIDs := make(map[string]uuid.UUID)

	typesData := []struct {
		name        string
		displayName string
		priceCents  int
	}{
		{"vip", "VIP", 150000},
		{"premium", "Premium", 80000},
		{"general", "General Admission", 35000},
	}

	for _, typeData := range typesData {
		ticketType := availability.TicketType{
			ID:          uuid.New(),
			Name:        typeData.name,
			DisplayName: typeData.displayName,
			PriceCents:  typeData.priceCents,
		}

		if err := s.db.PostgreSQL.Create(&ticketType).Error; err != nil {
			return nil, fmt.Errorf("failed to create ticket type %s: %w", typeData.name, err)
		}

		typeIDs[typeData.name] = ticketType.ID
		fmt.Printf("    ✅ Created ticket type: %s (%d cents)\n", ticketType.DisplayName, ticketType.PriceCents)
	}

	return typeIDs, nil
}

// SeedEvents creates sample events with their ticket inventory
func (s *Seeder) SeedEvents(typeIDs map[string]uuid.UUID) error {
	fmt.Println("  🎪 Seeding events...")

	eventsData := []struct {
		title       string
		description string
		venue       string
		daysFromNow int
		inventory   map[string]int // ticket type name -> count
	}{
		{
			title:       "Midnight Echoes World Tour",
			description: "Arena rock night with full production and two support acts.",
			venue:       "Riverside Arena",
			daysFromNow: 30,
			inventory:   map[string]int{"vip": 8, "premium": 20, "general": 60},
		},
		{
			title:       "Summer Jazz Festival",
			description: "Three stages of jazz across one long evening.",
			venue:       "Harbor Park",
			daysFromNow: 45,
			inventory:   map[string]int{"premium": 30, "general": 80},
		},
		{
			title:       "Stand-up Showcase",
			description: "Five comics, one night, no phones.",
			venue:       "The Basement Club",
			daysFromNow: 10,
			inventory:   map[string]int{"general": 40},
		},
	}

	for _, eventData := range eventsData {
		event := availability.Event{
			ID:          uuid.New(),
			Title:       eventData.title,
			Description: eventData.description,
			Venue:       eventData.venue,
			StartDate:   time.Now().AddDate(0, 0, eventData.daysFromNow),
			CreatedAt:   time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to create event %s: %w", event.Title, err)
		}
		fmt.Printf("    ✅ Created event: %s\n", event.Title)

		for typeName, count := range eventData.inventory {
			typeID, ok := typeIDs[typeName]
			if !ok {
				return fmt.Errorf("unknown ticket type %s for event %s", typeName, event.Title)
			}
			for i := 0; i < count; i++ {
				ticket := availability.Ticket{
					ID:           uuid.New(),
					EventID:      event.ID,
					TicketTypeID: typeID,
					Status:       availability.TicketStatusAvailable,
					CreatedAt:    time.Now(),
					UpdatedAt:    time.Now(),
				}
				if err := s.db.PostgreSQL.Create(&ticket).Error; err != nil {
					return fmt.Errorf("failed to create ticket for event %s: %w", event.Title, err)
				}
			}
			fmt.Printf("      ✅ Created %d %s tickets\n", count, typeName)
		}
	}

	return nil
}
