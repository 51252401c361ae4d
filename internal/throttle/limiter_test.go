package throttle

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_FirstCallImmediate(t *testing.T) {
	limiter := New(1.0)

	start := time.Now()
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestAcquire_SerializesConcurrentCallers(t *testing.T) {
	const (
		interval = 50 * time.Millisecond
		callers  = 5
		// Admission times can only be recorded after Wait returns, so
		// allow a little scheduler noise on the lower bound.
		epsilon = 15 * time.Millisecond
	)
	limiter := New(interval.Seconds())

	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, times, callers)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap, interval-epsilon,
			"admissions %d and %d violated the interval", i-1, i)
	}
}

func TestAcquire_CancellationWhileWaiting(t *testing.T) {
	limiter := New(1.0)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(ctx)
	require.Error(t, err)

	// The canceled waiter must not corrupt the clock for later callers.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	assert.NoError(t, limiter.Acquire(ctx2))
}

func TestAcquire_ZeroIntervalUnlimited(t *testing.T) {
	limiter := New(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, time.Duration(0), limiter.Interval())
}

func TestAcquire_AlreadyCanceledContext(t *testing.T) {
	limiter := New(0.5)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, limiter.Acquire(ctx))
}
