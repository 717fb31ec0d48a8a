package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireWithinBurst(t *testing.T) {
	g := New(1000, time.Hour, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for range 3 {
		require.NoError(t, g.Acquire(ctx))
	}
}

func TestAcquireBlocksBeyondBudget(t *testing.T) {
	// One call per hour: the burst token goes immediately, the next caller
	// must wait far longer than the test allows.
	g := New(1, time.Hour, 1)

	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := g.Acquire(ctx)
	assert.Error(t, err)
}

func TestAcquireNCountsCalls(t *testing.T) {
	g := New(1000, time.Hour, 4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, g.AcquireN(ctx, 2))
	require.NoError(t, g.AcquireN(ctx, 2))

	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	assert.Error(t, g.AcquireN(short, 2))
}

func TestZeroBudgetDisablesLimiting(t *testing.T) {
	g := NewFromBudget(0, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for range 100 {
		require.NoError(t, g.Acquire(ctx))
	}
}

func TestAcquireNZeroIsNoop(t *testing.T) {
	g := New(1, time.Hour, 1)
	assert.NoError(t, g.AcquireN(context.Background(), 0))
}
