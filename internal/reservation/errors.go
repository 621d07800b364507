package reservation

import "errors"

var (
	// ErrCrossEventConflict is returned when a reserve request targets a
	// different event than the one already held. The caller must complete or
	// cancel the existing reservation first; the manager never resolves this
	// silently.
	ErrCrossEventConflict = errors.New("tickets for a different event are already reserved")

	// ErrNoTickets is returned when a reserve request carries an empty
	// ticket set after deduplication.
	ErrNoTickets = errors.New("no tickets to reserve")
)
