package reservation

import "time"

// Record is the single persisted reservation slot: the tickets the user is
// currently holding, the event they belong to, and when the hold was last
// (re)established. ReservedAt is milliseconds since epoch; the shape is shared
// with every other consumer of the persisted record and must not change.
type Record struct {
	TicketIDs  []string `json:"ticketIds"`
	EventID    string   `json:"eventId"`
	ReservedAt int64    `json:"reservedAt"`
}

// HasTicket reports whether id is part of the held set.
func (r *Record) HasTicket(id string) bool {
	for _, t := range r.TicketIDs {
		if t == id {
			return true
		}
	}
	return false
}

// ReservedAtTime returns ReservedAt as a time.Time.
func (r *Record) ReservedAtTime() time.Time {
	return time.UnixMilli(r.ReservedAt).UTC()
}

// Status is a point-in-time view of the reservation slot as seen by the
// watch timer. Expired is set only on the read that detected (and purged)
// an expired record.
type Status struct {
	Record    *Record
	Remaining int
	Expired   bool
}

// Valid reports whether a live reservation backs this status.
func (s Status) Valid() bool {
	return s.Record != nil
}
