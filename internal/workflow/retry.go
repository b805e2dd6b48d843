package workflow

import (
	"context"
	"log/slog"
	"time"

	"scribe/internal/logging"
	"scribe/internal/services"
)

// RetryPolicy bounds how a task-like step is re-attempted after a
// transient-class error.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	Multiplier     float64
}

// Run executes fn under the policy. Only transient-class errors are
// retried; validation and configuration failures surface immediately.
// Exhausting all attempts returns the last error.
func (p RetryPolicy) Run(ctx context.Context, logger *slog.Logger, step string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !services.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if logger != nil {
			logger.Warn("step failed, retrying",
				logging.String(logging.FieldStage, step),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff),
				logging.Error(lastErr),
			)
		}
		if err := sleepContext(ctx, backoff); err != nil {
			return err
		}
		backoff = time.Duration(float64(backoff) * p.Multiplier)
	}
	return lastErr
}

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
