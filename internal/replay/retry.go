package replay

import (
	"context"
	"errors"
	"time"

	"pairSwap/internal/model"
)

const (
	defaultRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 30 * time.Second
)

// retryPolicy retries transient failures with doubling delays capped at maxRetryDelay.
type retryPolicy struct {
	retries int
	delay   time.Duration
	onRetry func(attempt int, err error)
}

func newRetryPolicy(retries int, delay time.Duration) retryPolicy {
	if retries < 0 {
		retries = 0
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return retryPolicy{retries: retries, delay: delay}
}

// do runs fn at most retries+1 times. Only transient errors are retried.
func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	delay := p.delay
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			if p.onRetry != nil {
				p.onRetry(attempt, err)
			}
			if werr := sleep(ctx, delay); werr != nil {
				return werr
			}
			delay = min(2*delay, maxRetryDelay)
		}
		if err = fn(ctx); err == nil || !transient(err) {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transient reports whether err may succeed on retry. Engine rejections are
// deterministic and never retried.
func transient(err error) bool {
	if _, ok := model.Classify(err); ok {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
