package dynamodbsource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCapacityPacerNoOpWhenBudgetZero(t *testing.T) {
	t.Parallel()

	p := newCapacityPacer(0)
	p.Record(1000)
	assert.NoError(t, p.Wait(context.Background()))
}

func TestCapacityPacerBlocksOverBudget(t *testing.T) {
	t.Parallel()

	p := newCapacityPacer(1) // 1 unit/sec -> 10 units per 10s window
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.nowFn = func() time.Time { return now }

	p.Record(10)
	assert.Equal(t, float64(10), p.window.sum(now))

	// at budget, Wait blocks until ctx is done
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)

	// under budget still passes immediately
	p2 := newCapacityPacer(1)
	p2.nowFn = func() time.Time { return now }
	assert.NoError(t, p2.Wait(context.Background()))
}

func TestSlidingWindowPrunesOldSamples(t *testing.T) {
	t.Parallel()

	w := newSlidingWindow(10 * time.Second)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	w.record(base, 5)
	w.record(base.Add(5*time.Second), 5)

	assert.Equal(t, float64(10), w.sum(base.Add(5*time.Second)))
	assert.Equal(t, float64(5), w.sum(base.Add(11*time.Second)), "first sample should have aged out")
}
