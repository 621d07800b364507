package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrTicketsLocked means at least one requested ticket already carries
	// another hold. The lock acquisition is all-or-nothing.
	ErrTicketsLocked = errors.New("at least one ticket is already reserved")

	// ErrHoldRequired means a purchase was attempted for tickets that are
	// not (or no longer) held by a reservation.
	ErrHoldRequired = errors.New("tickets are not held by an active reservation")
)

// RejectedError is a client-side error: the server answered the call but
// declined it. Message carries the server's user-facing reason verbatim;
// callers must not retry automatically.
type RejectedError struct {
	Message    string
	StatusCode int
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("booking request rejected with status %d", e.StatusCode)
}

// TransportError is a client-side error: the call never produced a usable
// booking response (network failure, unexpected payload). Surfaced as a
// generic failure; never retried for reserve/purchase calls.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("booking service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err is a server-side rejection (as opposed to a
// transport failure).
func IsRejected(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected)
}
