package socket

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{base: 100 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 200*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 300*time.Millisecond, b.NextBackOff())

	b.Reset()
	assert.Equal(t, 100*time.Millisecond, b.NextBackOff())
}

func TestReconnectPolicy_StopsAfterMaxRetries(t *testing.T) {
	p := newReconnectPolicy(context.Background(), time.Second, 2)
	p.Reset()

	assert.Equal(t, time.Second, p.NextBackOff())
	assert.Equal(t, 2*time.Second, p.NextBackOff())
	assert.Equal(t, backoff.Stop, p.NextBackOff())
}

func TestReconnectPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newReconnectPolicy(ctx, time.Second, 5)
	cancel()

	assert.Equal(t, backoff.Stop, p.NextBackOff())
}
