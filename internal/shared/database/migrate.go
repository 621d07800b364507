package database

import (
	"tix/internal/availability"
	"tix/internal/booking"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&availability.Event{},
		&availability.TicketType{},
		&availability.Ticket{},
		&booking.Purchase{},
		&booking.PurchaseTicket{},
	)
}
