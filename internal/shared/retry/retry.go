package retry

import (
	"context"
	"time"
)

// DefaultDelay matches the pause used between broker and database attempts.
const DefaultDelay = 2 * time.Second

// Fixed retries an operation with a constant pause until it succeeds, the
// error is classified as permanent, or the context ends.
type Fixed struct {
	Delay time.Duration
	// Retryable reports whether err is transient. Nil treats every error as
	// transient.
	Retryable func(error) bool
	// OnRetry is called before each pause.
	OnRetry func(attempt int, err error)
}

func (f Fixed) Do(ctx context.Context, op func(context.Context) error) error {
	delay := f.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if f.Retryable != nil && !f.Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		if f.OnRetry != nil {
			f.OnRetry(attempt, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
