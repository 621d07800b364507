package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrPaymentDeclined reports a charge the processor refused.
var ErrPaymentDeclined = errors.New("payment declined")

// Charger processes payment for a purchase total (in cents) before the sale
// is recorded.
type Charger interface {
	Charge(ctx context.Context, totalCents int) error
}

// MockCharger simulates a card processor: a short processing delay, then a
// decline at the configured rate. The zero value approves every charge
// instantly, which is what tests want.
type MockCharger struct {
	DeclineRate float32
	Delay       time.Duration
}

// NewMockCharger returns the simulator tuned like a flaky real processor:
// 50ms of processing and a decline roughly once in ten charges.
func NewMockCharger() MockCharger {
	return MockCharger{DeclineRate: 0.1, Delay: 50 * time.Millisecond}
}

func (m MockCharger) Charge(ctx context.Context, totalCents int) error {
	if totalCents <= 0 {
		return fmt.Errorf("nothing to charge")
	}

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	// rand.Float32 is in [0, 1): a rate of 1 always declines, 0 never does.
	if rand.Float32() < m.DeclineRate {
		return fmt.Errorf("%w: insufficient funds for amount %d cents", ErrPaymentDeclined, totalCents)
	}
	return nil
}
