package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueueHigherLevelExecutesFirst(t *testing.T) {
	q := NewPriorityQueue(Config{Capacity: 10, DrainTimeout: time.Second}, setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return name, nil
		}
	}

	// Admit both before the consumer can drain either
	low, err := Submit(ctx, q, record("low"), WithLevel(PriorityLow))
	require.NoError(t, err)
	emergency, err := Submit(ctx, q, record("emergency"), WithLevel(PriorityEmergency))
	require.NoError(t, err)

	q.Start(ctx)

	v, err := emergency.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "emergency", v)
	_, err = low.Await(ctx)
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"emergency", "low"}, order,
		"emergency must execute before low regardless of enqueue order")
	mu.Unlock()
}

func TestPriorityQueueFullPrecedenceOrder(t *testing.T) {
	q := NewPriorityQueue(Config{Capacity: 10, DrainTimeout: time.Second}, setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()

	var mu sync.Mutex
	var order []PriorityLevel

	// Enqueue lowest-first so admission order opposes precedence
	levels := []PriorityLevel{PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical, PriorityEmergency}
	var futures []*Future[int]
	for _, level := range levels {
		level := level
		fut, err := Submit(ctx, q, func(context.Context) (int, error) {
			mu.Lock()
			order = append(order, level)
			mu.Unlock()
			return 0, nil
		}, WithLevel(level))
		require.NoError(t, err)
		futures = append(futures, fut)
	}

	q.Start(ctx)
	for _, fut := range futures {
		_, err := fut.Await(ctx)
		require.NoError(t, err)
	}

	mu.Lock()
	assert.Equal(t,
		[]PriorityLevel{PriorityEmergency, PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow},
		order)
	mu.Unlock()
}

func TestPriorityQueueFIFOWithinLevel(t *testing.T) {
	q := NewPriorityQueue(Config{Capacity: 10, DrainTimeout: time.Second}, setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()

	var mu sync.Mutex
	var order []int
	var futures []*Future[int]

	// Numeric priorities are metadata only: high numbers must not jump
	// the FIFO order within a level.
	for i, numeric := range []int{5, 100, 1} {
		i := i
		fut, err := Submit(ctx, q, func(context.Context) (int, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return i, nil
		}, WithLevel(PriorityHigh), WithPriority(numeric))
		require.NoError(t, err)
		futures = append(futures, fut)
	}

	q.Start(ctx)
	for _, fut := range futures {
		_, err := fut.Await(ctx)
		require.NoError(t, err)
	}

	mu.Lock()
	assert.Equal(t, []int{0, 1, 2}, order)
	mu.Unlock()
}

func TestPriorityQueueSingleFlight(t *testing.T) {
	q := NewPriorityQueue(Config{Capacity: 50, DrainTimeout: 2 * time.Second}, setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	q.Start(ctx)

	var inFlight atomic.Int32
	var maxInFlight atomic.Int32

	var futures []*Future[int]
	for i := 0; i < 20; i++ {
		fut, err := Submit(ctx, q, func(context.Context) (int, error) {
			n := inFlight.Add(1)
			for {
				cur := maxInFlight.Load()
				if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			return 0, nil
		}, WithLevel(PriorityLevel(i%numLevels)))
		require.NoError(t, err)
		futures = append(futures, fut)
	}

	for _, fut := range futures {
		_, err := fut.Await(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), maxInFlight.Load(), "at most one task may execute at a time")
}

func TestPriorityQueueCancelBeforeDispatch(t *testing.T) {
	q := NewPriorityQueue(DefaultConfig(), setupTestLogger())
	defer func() { _ = q.Close() }()

	taskCtx, cancelTask := context.WithCancel(context.Background())

	var executed atomic.Bool
	fut, err := Submit(taskCtx, q, func(context.Context) (int, error) {
		executed.Store(true)
		return 1, nil
	})
	require.NoError(t, err)

	// Cancel while the task is still resident, then start the loop
	cancelTask()
	q.Start(context.Background())

	_, err = fut.Await(context.Background())
	assert.ErrorIs(t, err, ErrTaskCancelled)
	assert.True(t, fut.Cancelled())
	assert.False(t, executed.Load(), "work body must never run when cancelled before dispatch")
	assert.Equal(t, int64(1), q.Stats().Cancelled())
	assert.Equal(t, int64(0), q.Stats().Processed())
}

func TestPriorityQueueCancelDuringExecution(t *testing.T) {
	q := NewPriorityQueue(DefaultConfig(), setupTestLogger())
	defer func() { _ = q.Close() }()

	q.Start(context.Background())

	taskCtx, cancelTask := context.WithCancel(context.Background())
	started := make(chan struct{})

	fut, err := Submit(taskCtx, q, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.NoError(t, err)

	<-started
	cancelTask()

	_, err = fut.Await(context.Background())
	assert.ErrorIs(t, err, ErrTaskCancelled)
	assert.Equal(t, int64(1), q.Stats().Cancelled())
}

func TestPriorityQueueTimeout(t *testing.T) {
	q := NewPriorityQueue(DefaultConfig(), setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	q.Start(ctx)

	fut, err := Submit(ctx, q, func(ctx context.Context) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return 1, nil
		}
	}, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = fut.Await(ctx)
	assert.ErrorIs(t, err, ErrTaskTimeout, "timeout must be surfaced distinctly from caller cancellation")
	assert.False(t, fut.Cancelled())
	assert.Equal(t, int64(1), q.Stats().Failed())
	assert.Equal(t, int64(0), q.Stats().Cancelled())
}

func TestPriorityQueueErrorCountsOnce(t *testing.T) {
	q := NewPriorityQueue(DefaultConfig(), setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	q.Start(ctx)

	boom := errors.New("invalid operation")
	fut, err := Submit(ctx, q, func(context.Context) (int, error) {
		return 0, boom
	})
	require.NoError(t, err)

	_, err = fut.Await(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), q.Stats().Failed())
	assert.Equal(t, int64(0), q.Stats().Processed())
	assert.Equal(t, int64(0), q.Stats().Cancelled())
}

func TestPriorityQueueAccountingIdentity(t *testing.T) {
	q := NewPriorityQueue(Config{Capacity: 20, DrainTimeout: 2 * time.Second}, setupTestLogger())

	ctx := context.Background()

	cancelledCtx, cancelTask := context.WithCancel(ctx)
	cancelTask()

	var futures []*Future[int]
	submit := func(taskCtx context.Context, work func(context.Context) (int, error), opts ...TaskOption) {
		fut, err := Submit(taskCtx, q, work, opts...)
		require.NoError(t, err)
		futures = append(futures, fut)
	}

	submit(ctx, func(context.Context) (int, error) { return 1, nil })
	submit(ctx, func(context.Context) (int, error) { return 0, errors.New("boom") }, WithLevel(PriorityHigh))
	submit(cancelledCtx, func(context.Context) (int, error) { return 0, nil })
	submit(ctx, func(context.Context) (int, error) { return 2, nil }, WithLevel(PriorityEmergency))

	q.Start(ctx)
	for _, fut := range futures {
		<-fut.Done()
	}

	stats := q.Stats()
	assert.Equal(t, stats.Queued(),
		stats.Processed()+stats.Failed()+stats.Cancelled()+stats.Depth(),
		"every admitted task reaches exactly one terminal outcome")
	assert.Equal(t, int64(4), stats.Queued())
	assert.Equal(t, int64(2), stats.Processed())
	assert.Equal(t, int64(1), stats.Failed())
	assert.Equal(t, int64(1), stats.Cancelled())
	assert.Equal(t, int64(0), stats.Depth())

	require.NoError(t, q.Close())
}

func TestPriorityQueuePerLevelCounters(t *testing.T) {
	q := NewPriorityQueue(Config{Capacity: 10, DrainTimeout: time.Second}, setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	q.Start(ctx)

	for i := 0; i < 3; i++ {
		fut, err := Submit(ctx, q, func(context.Context) (int, error) { return 0, nil },
			WithLevel(PriorityCritical))
		require.NoError(t, err)
		_, err = fut.Await(ctx)
		require.NoError(t, err)
	}

	critical := q.Stats().Level(PriorityCritical)
	require.NotNil(t, critical)
	assert.Equal(t, int64(3), critical.Queued())
	assert.Equal(t, int64(3), critical.Processed())
	assert.Equal(t, int64(0), q.Stats().Level(PriorityLow).Queued())
	assert.Nil(t, q.Stats().Level(PriorityLevel(99)))
}

func TestPriorityQueueCurrentLevelVisibleDuringExecution(t *testing.T) {
	q := NewPriorityQueue(DefaultConfig(), setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	q.Start(ctx)

	started := make(chan struct{})
	release := make(chan struct{})

	fut, err := Submit(ctx, q, func(context.Context) (int, error) {
		close(started)
		<-release
		return 0, nil
	}, WithLevel(PriorityHigh))
	require.NoError(t, err)

	<-started
	level, executing := q.Stats().CurrentLevel()
	assert.True(t, executing)
	assert.Equal(t, PriorityHigh, level)

	close(release)
	_, err = fut.Await(ctx)
	require.NoError(t, err)

	// Idle again once the task resolves
	require.Eventually(t, func() bool {
		_, executing := q.Stats().CurrentLevel()
		return !executing
	}, time.Second, 5*time.Millisecond)
}

func TestPriorityQueueInvalidLevelRejected(t *testing.T) {
	q := NewPriorityQueue(DefaultConfig(), setupTestLogger())
	defer func() { _ = q.Close() }()

	_, err := Submit(context.Background(), q, func(context.Context) (int, error) { return 0, nil },
		WithLevel(PriorityLevel(99)))
	assert.Error(t, err)
	assert.Equal(t, int64(0), q.Stats().Queued())
}

func TestPriorityQueueMixedResultTypes(t *testing.T) {
	q := NewPriorityQueue(DefaultConfig(), setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	q.Start(ctx)

	intFut, err := Submit(ctx, q, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	strFut, err := Submit(ctx, q, func(context.Context) (string, error) { return "hello", nil })
	require.NoError(t, err)

	n, err := intFut.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	s, err := strFut.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestPriorityQueueCloseWithoutStartLeavesWorkUnexecuted(t *testing.T) {
	q := NewPriorityQueue(DefaultConfig(), setupTestLogger())

	ctx := context.Background()
	var executed atomic.Bool
	fut, err := Submit(ctx, q, func(context.Context) (int, error) {
		executed.Store(true)
		return 1, nil
	}, WithLevel(PriorityEmergency))
	require.NoError(t, err)

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	_, err = fut.Await(ctx)
	assert.ErrorIs(t, err, ErrTaskCancelled)
	assert.False(t, executed.Load())
	assert.Equal(t, int64(1), q.Stats().Cancelled())
	assert.Equal(t, int64(0), q.Stats().Depth())
}

func TestPriorityQueueSnapshot(t *testing.T) {
	q := NewPriorityQueue(Config{Capacity: 10, DrainTimeout: time.Second}, setupTestLogger())
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	q.Start(ctx)

	fut, err := Submit(ctx, q, func(context.Context) (int, error) { return 0, nil },
		WithLevel(PriorityNormal))
	require.NoError(t, err)
	_, err = fut.Await(ctx)
	require.NoError(t, err)

	snap := q.Stats().Snapshot()
	assert.Equal(t, int64(1), snap.Queued)
	assert.Equal(t, int64(1), snap.Processed)
	assert.Len(t, snap.Levels, numLevels)
	assert.Equal(t, int64(1), snap.Levels["normal"].Processed)
	assert.Equal(t, int64(0), snap.Depth)
}
