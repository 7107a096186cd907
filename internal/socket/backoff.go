package socket

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff waits base, 2*base, 3*base, ... between attempts.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

var _ backoff.BackOff = (*linearBackOff)(nil)

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.base
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// newReconnectPolicy caps the linear schedule at maxRetries retries after
// the first attempt and stops as soon as ctx is done.
func newReconnectPolicy(ctx context.Context, base time.Duration, maxRetries int) backoff.BackOffContext {
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.WithMaxRetries(&linearBackOff{base: base}, uint64(maxRetries))
	return backoff.WithContext(b, ctx)
}
