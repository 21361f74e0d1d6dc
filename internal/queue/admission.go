package queue

import (
	"context"
	"fmt"
	"sync"
)

// admission is the hand-off structure between producer goroutines and the
// single consumer loop: per-level FIFO lanes guarded by a mutex, a wake
// signal for the consumer, and a slot-release signal for producers waiting
// on a bounded queue. The serial queue uses a single lane; the prioritized
// queue uses all five.
type admission struct {
	mu     sync.Mutex
	lanes  [numLevels][]*task
	depth  int
	closed bool

	capacity       int // 0 means unbounded
	rejectWhenFull bool

	// wake is signalled (non-blocking, buffered 1) whenever a task is
	// admitted, so an idle consumer resumes.
	wake chan struct{}

	// space receives one token per freed slot so suspended producers can
	// retry. Sized to capacity so tokens are only dropped when enough are
	// already pending to wake every possible waiter.
	space chan struct{}

	// closing is closed exactly once on shutdown.
	closing chan struct{}
}

func newAdmission(capacity int, rejectWhenFull bool) *admission {
	spaceSize := capacity
	if spaceSize < 1 {
		spaceSize = 1
	}
	return &admission{
		capacity:       capacity,
		rejectWhenFull: rejectWhenFull,
		wake:           make(chan struct{}, 1),
		space:          make(chan struct{}, spaceSize),
		closing:        make(chan struct{}),
	}
}

// admit places t into its lane. On a bounded queue at capacity it either
// fails fast with ErrQueueFull or suspends cooperatively until a slot
// frees, the caller's ctx is done, or the queue closes.
func (a *admission) admit(ctx context.Context, t *task) error {
	for {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return ErrQueueClosed
		}
		if a.capacity == 0 || a.depth < a.capacity {
			a.lanes[t.level] = append(a.lanes[t.level], t)
			a.depth++
			a.mu.Unlock()
			select {
			case a.wake <- struct{}{}:
			default:
			}
			return nil
		}
		if a.rejectWhenFull {
			a.mu.Unlock()
			return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, a.capacity)
		}
		a.mu.Unlock()

		select {
		case <-a.space:
			// Slot may have freed; retry. Spurious wakes just loop again.
		case <-ctx.Done():
			return ctx.Err()
		case <-a.closing:
			return ErrQueueClosed
		}
	}
}

// pop removes and returns the next task per the selection policy: highest
// non-empty level first, FIFO within a level. Returns nil when every lane
// is empty.
func (a *admission) pop() *task {
	a.mu.Lock()
	defer a.mu.Unlock()
	for lvl := numLevels - 1; lvl >= 0; lvl-- {
		lane := a.lanes[lvl]
		if len(lane) == 0 {
			continue
		}
		t := lane[0]
		lane[0] = nil
		a.lanes[lvl] = lane[1:]
		a.depth--
		select {
		case a.space <- struct{}{}:
		default:
		}
		return t
	}
	return nil
}

// resident reports how many admitted tasks have not yet been popped.
func (a *admission) resident() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.depth
}

// close rejects all further admissions and releases any suspended
// producers. Tasks already admitted stay resident for the consumer (or
// shutdown) to drain.
func (a *admission) close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	close(a.closing)
}
