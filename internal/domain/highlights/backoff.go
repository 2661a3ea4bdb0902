package highlights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topiccut/internal/types"
)

const (
	DefaultMaxRetries = 30
	DefaultMaxDelay   = 16 * time.Second
)

// Backoff retries rate-limited calls with exponential delays: 1s, 2s, 4s, ...
// capped at MaxDelay. Every other error is returned immediately.
type Backoff struct {
	MaxRetries int
	MaxDelay   time.Duration
	// Sleep waits for d or until ctx is done. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
	Log   logrus.FieldLogger
}

func DefaultBackoff() Backoff {
	return Backoff{MaxRetries: DefaultMaxRetries, MaxDelay: DefaultMaxDelay}
}

// Delay is the wait before the given retry (1-based).
func (b Backoff) Delay(retry int) time.Duration {
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if retry < 1 {
		retry = 1
	}
	d := time.Second
	for i := 1; i < retry && d < maxDelay; i++ {
		d *= 2
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

func (b Backoff) Do(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	sleep := b.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	log := b.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	for retry := 0; ; retry++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, types.ErrRateLimited) {
			return "", err
		}
		if retry >= b.MaxRetries {
			return "", fmt.Errorf("giving up after %d retries: %w", retry, err)
		}

		delay := b.Delay(retry + 1)
		log.WithFields(logrus.Fields{
			"retry": retry + 1,
			"max":   b.MaxRetries,
			"delay": delay.String(),
		}).Warn("model throttled, backing off")
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
