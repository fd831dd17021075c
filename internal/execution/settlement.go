package execution

import (
	"context"
	"time"
)

// Settlement bounds how long the executor waits for an order to reach a terminal status.
type Settlement struct {
	// Delay is the wait before the first status poll.
	Delay time.Duration
	// MaxAttempts caps the number of status polls. One reproduces a single delayed check.
	MaxAttempts int
	// MaxBackoff caps the doubling wait between polls.
	MaxBackoff time.Duration
	// Timeout bounds the whole settlement phase, zero means no extra bound.
	Timeout time.Duration
}

// DefaultSettlement waits 15s, then doubles up to a minute for five polls (3m45s in total),
// giving up after four minutes.
func DefaultSettlement() Settlement {
	return Settlement{
		Delay:       15 * time.Second,
		MaxAttempts: 5,
		MaxBackoff:  60 * time.Second,
		Timeout:     4 * time.Minute,
	}
}

func (s Settlement) normalized() Settlement {
	def := DefaultSettlement()
	if s.Delay < 0 {
		s.Delay = 0
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = def.MaxAttempts
	}
	if s.MaxBackoff < s.Delay {
		s.MaxBackoff = s.Delay
	}
	if s.Timeout < 0 {
		s.Timeout = 0
	}
	return s
}

// backoff returns the wait before poll n (zero based): Delay * 2^n capped at MaxBackoff.
func (s Settlement) backoff(n int) time.Duration {
	if n <= 0 {
		return s.Delay
	}
	if n > 30 {
		return s.MaxBackoff
	}
	wait := s.Delay * time.Duration(1<<n)
	if wait > s.MaxBackoff || wait < s.Delay {
		return s.MaxBackoff
	}
	return wait
}

// TotalWait is the summed wait before every poll once all attempts are used. A Timeout below
// it cuts the last polls off and turns a still-pending order into an unknown one.
func (s Settlement) TotalWait() time.Duration {
	s = s.normalized()
	var total time.Duration
	for n := 0; n < s.MaxAttempts; n++ {
		total += s.backoff(n)
	}
	return total
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
