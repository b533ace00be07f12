package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1), "burst")
	assert.False(t, l.Allow(1), "burst exhausted")

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow(1), "refilled after wait")
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, 1))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestNewDispatchLimiter(t *testing.T) {
	assert.Nil(t, NewDispatchLimiter(0))
	assert.Nil(t, NewDispatchLimiter(-3))

	var off *Limiter
	assert.True(t, off.Allow(100))
	assert.NoError(t, off.Wait(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, off.Wait(ctx, 1), context.Canceled)

	l := NewDispatchLimiter(0.5)
	require.NotNil(t, l)
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
}
