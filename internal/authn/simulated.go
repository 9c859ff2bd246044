// Package authn provides adapters for the domain.Authenticator port.
package authn

import (
	"context"
	"time"
)

// DefaultDelay is how long the simulated backend takes to answer.
const DefaultDelay = 1000 * time.Millisecond

// Simulated stands in for the real authentication API. It waits for Delay
// and then accepts any credentials. It only fails when ctx ends first.
type Simulated struct {
	Delay time.Duration
}

// NewSimulated returns a simulated backend. A negative delay is treated as zero.
func NewSimulated(delay time.Duration) *Simulated {
	if delay < 0 {
		delay = 0
	}
	return &Simulated{Delay: delay}
}

// AttemptLogin implements domain.Authenticator.
func (s *Simulated) AttemptLogin(ctx context.Context, email, password string) error {
	if s.Delay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
