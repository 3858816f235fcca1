package gate

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGap = 40 * time.Millisecond

func TestNew(t *testing.T) {
	g, err := New(DefaultMinGap)
	require.NoError(t, err)
	assert.Equal(t, 3500*time.Millisecond, g.MinGap())

	_, err = New(-time.Second)
	assert.Equal(t, ErrInvalidGap, err)
}

func TestWait_FirstCallIsImmediate(t *testing.T) {
	g, err := New(time.Hour)
	require.NoError(t, err)

	start := time.Now()
	_, err = g.Wait(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_BackToBackHonorsGap(t *testing.T) {
	g, err := New(testGap)
	require.NoError(t, err)

	first, err := g.Wait(context.Background())
	require.NoError(t, err)
	second, err := g.Wait(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, second.Sub(first), testGap)
}

func TestWait_NoDelayAfterGapElapsed(t *testing.T) {
	g, err := New(testGap)
	require.NoError(t, err)

	g.Throttle()
	time.Sleep(testGap + 10*time.Millisecond)

	start := time.Now()
	g.Throttle()
	assert.Less(t, time.Since(start), testGap)
}

func TestWait_ConcurrentCallersEachHonorGap(t *testing.T) {
	g, err := New(testGap)
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		releases []time.Time
		wg       sync.WaitGroup
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			released, err := g.Wait(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			releases = append(releases, released)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, releases, 4)
	slices.SortFunc(releases, func(a, b time.Time) int { return a.Compare(b) })
	for i := 1; i < len(releases); i++ {
		assert.GreaterOrEqual(t, releases[i].Sub(releases[i-1]), testGap)
	}
}

func TestWait_Cancellation(t *testing.T) {
	g, err := New(time.Hour)
	require.NoError(t, err)

	first := g.Throttle()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// An abandoned wait leaves the last release untouched.
	assert.Equal(t, first, g.last)
}

func TestWait_CancelledWhileQueued(t *testing.T) {
	g, err := New(time.Hour)
	require.NoError(t, err)

	g.Throttle()

	// Occupy the gate with a waiter that will sit on the hour-long gap.
	holderCtx, stopHolder := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = g.Wait(holderCtx)
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	stopHolder()
	<-done
}
