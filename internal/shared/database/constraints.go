package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Statements AutoMigrate cannot express. MigrateConstraints runs on every
// startup, so each statement must tolerate the object already existing.
// PostgreSQL has no ADD CONSTRAINT IF NOT EXISTS; the constraint add is
// wrapped in a DO block that swallows the duplicate errors instead.
var constraintStatements = []string{
	// A ticket can appear in at most one purchase, ever
	`DO $$
	BEGIN
		ALTER TABLE purchase_tickets
			ADD CONSTRAINT unique_ticket_purchase UNIQUE (ticket_id);
	EXCEPTION
		WHEN duplicate_object OR duplicate_table THEN NULL;
	END
	$$;`,

	// Index for the snapshot query: all tickets for an event with status
	`CREATE INDEX IF NOT EXISTS idx_tickets_event_status
	ON tickets (event_id, status);`,
}

// MigrateConstraints adds critical database constraints for concurrency
// control. Called from InitDB right after Migrate.
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("constraint migration: %w", err)
		}
	}
	return nil
}
