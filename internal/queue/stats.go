package queue

import (
	"sync/atomic"
	"time"
)

// AggregateStatsName identifies the aggregate view of a queue's stats.
const AggregateStatsName = "all"

// QueueStats holds live counters for a serial queue. One instance is
// created at queue construction and mutated in place for the lifetime of
// the queue; repeated reads observe continuous updates, not snapshots.
// Counters touched from producer goroutines (queued) use atomics; the
// rest mutate only on the consumer loop.
type QueueStats struct {
	name string

	queued    atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64

	lastProcessed atomic.Int64 // unix nanos, 0 when nothing processed yet
	window        *slidingWindow
}

func newQueueStats(name string, windowSize int, windowAge time.Duration) *QueueStats {
	return &QueueStats{
		name:   name,
		window: newSlidingWindow(windowSize, windowAge),
	}
}

// Name returns the stats identifier ("all" for the aggregate view).
func (s *QueueStats) Name() string { return s.name }

// Queued returns the total number of tasks ever admitted.
func (s *QueueStats) Queued() int64 { return s.queued.Load() }

// Processed returns the number of tasks that completed successfully.
func (s *QueueStats) Processed() int64 { return s.processed.Load() }

// Failed returns the number of tasks that resolved with an error,
// including timeouts and cancellations.
func (s *QueueStats) Failed() int64 { return s.failed.Load() }

// LastProcessedAt returns when the most recent task completed, or the
// zero time if none has.
func (s *QueueStats) LastProcessedAt() time.Time {
	ns := s.lastProcessed.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// AverageProcessingTime returns the mean duration of recent completions,
// computed over the sliding window.
func (s *QueueStats) AverageProcessingTime() time.Duration {
	return s.window.average()
}

func (s *QueueStats) taskQueued() {
	s.queued.Add(1)
}

func (s *QueueStats) taskProcessed(d time.Duration) {
	s.processed.Add(1)
	s.lastProcessed.Store(time.Now().UnixNano())
	s.window.append(d)
}

func (s *QueueStats) taskFailed() {
	s.failed.Add(1)
	s.lastProcessed.Store(time.Now().UnixNano())
}

// QueueStatsSnapshot is a point-in-time copy of QueueStats, shaped for
// JSON rendering by the API layer.
type QueueStatsSnapshot struct {
	Name              string     `json:"name"`
	Queued            int64      `json:"queued"`
	Processed         int64      `json:"processed"`
	Failed            int64      `json:"failed"`
	LastProcessedAt   *time.Time `json:"last_processed_at,omitempty"`
	AverageProcessing string     `json:"average_processing_time"`
}

// Snapshot copies the live counters into a serializable struct.
func (s *QueueStats) Snapshot() QueueStatsSnapshot {
	snap := QueueStatsSnapshot{
		Name:              s.name,
		Queued:            s.Queued(),
		Processed:         s.Processed(),
		Failed:            s.Failed(),
		AverageProcessing: s.AverageProcessingTime().String(),
	}
	if at := s.LastProcessedAt(); !at.IsZero() {
		snap.LastProcessedAt = &at
	}
	return snap
}

// PriorityStats holds the live per-level counters of a prioritized queue.
type PriorityStats struct {
	queued    atomic.Int64
	processed atomic.Int64
}

// Queued returns how many tasks were admitted at this level.
func (s *PriorityStats) Queued() int64 { return s.queued.Load() }

// Processed returns how many tasks at this level completed successfully.
func (s *PriorityStats) Processed() int64 { return s.processed.Load() }

// noCurrentLevel marks the currently-executing slot as empty.
const noCurrentLevel = -1

// PrioritizedQueueStats holds live counters for a prioritized queue:
// overall totals, current depth, the level currently executing, and
// per-level breakdowns. Like QueueStats it is created once and mutated in
// place; the accessor on the queue returns it by reference so polling
// observes continuous updates.
type PrioritizedQueueStats struct {
	queued    atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64

	depth   atomic.Int64
	current atomic.Int32

	perLevel [numLevels]PriorityStats
	window   *slidingWindow
}

func newPrioritizedQueueStats(windowSize int, windowAge time.Duration) *PrioritizedQueueStats {
	s := &PrioritizedQueueStats{
		window: newSlidingWindow(windowSize, windowAge),
	}
	s.current.Store(noCurrentLevel)
	return s
}

// Queued returns the total number of tasks ever admitted.
func (s *PrioritizedQueueStats) Queued() int64 { return s.queued.Load() }

// Processed returns the number of tasks that completed successfully.
func (s *PrioritizedQueueStats) Processed() int64 { return s.processed.Load() }

// Failed returns the number of tasks that resolved with an error,
// including timeouts.
func (s *PrioritizedQueueStats) Failed() int64 { return s.failed.Load() }

// Cancelled returns the number of tasks resolved as cancelled.
func (s *PrioritizedQueueStats) Cancelled() int64 { return s.cancelled.Load() }

// Depth returns the number of admitted tasks that have not yet started.
func (s *PrioritizedQueueStats) Depth() int64 { return s.depth.Load() }

// CurrentLevel returns the priority level of the task currently
// executing. The second return is false when the consumer is idle.
func (s *PrioritizedQueueStats) CurrentLevel() (PriorityLevel, bool) {
	v := s.current.Load()
	if v == noCurrentLevel {
		return 0, false
	}
	return PriorityLevel(v), true
}

// Level returns the live per-level counters for l. Returns nil for levels
// outside the defined range.
func (s *PrioritizedQueueStats) Level(l PriorityLevel) *PriorityStats {
	if !l.IsValid() {
		return nil
	}
	return &s.perLevel[l]
}

// AverageProcessingTime returns the mean duration of recent completions,
// computed over the sliding window.
func (s *PrioritizedQueueStats) AverageProcessingTime() time.Duration {
	return s.window.average()
}

func (s *PrioritizedQueueStats) taskQueued(l PriorityLevel) {
	s.queued.Add(1)
	s.depth.Add(1)
	s.perLevel[l].queued.Add(1)
}

func (s *PrioritizedQueueStats) taskDequeued() {
	s.depth.Add(-1)
}

func (s *PrioritizedQueueStats) taskProcessed(l PriorityLevel, d time.Duration) {
	s.processed.Add(1)
	s.perLevel[l].processed.Add(1)
	s.window.append(d)
}

func (s *PrioritizedQueueStats) taskFailed() {
	s.failed.Add(1)
}

func (s *PrioritizedQueueStats) taskCancelled() {
	s.cancelled.Add(1)
}

func (s *PrioritizedQueueStats) setCurrentLevel(l PriorityLevel) {
	s.current.Store(int32(l))
}

func (s *PrioritizedQueueStats) clearCurrentLevel() {
	s.current.Store(noCurrentLevel)
}

// PriorityStatsSnapshot is a point-in-time copy of one level's counters.
type PriorityStatsSnapshot struct {
	Queued    int64 `json:"queued"`
	Processed int64 `json:"processed"`
}

// PrioritizedQueueStatsSnapshot is a point-in-time copy of
// PrioritizedQueueStats, shaped for JSON rendering by the API layer.
type PrioritizedQueueStatsSnapshot struct {
	Queued            int64                            `json:"queued"`
	Processed         int64                            `json:"processed"`
	Failed            int64                            `json:"failed"`
	Cancelled         int64                            `json:"cancelled"`
	Depth             int64                            `json:"depth"`
	CurrentLevel      *PriorityLevel                   `json:"current_level,omitempty"`
	Levels            map[string]PriorityStatsSnapshot `json:"levels"`
	AverageProcessing string                           `json:"average_processing_time"`
}

// Snapshot copies the live counters into a serializable struct.
func (s *PrioritizedQueueStats) Snapshot() PrioritizedQueueStatsSnapshot {
	snap := PrioritizedQueueStatsSnapshot{
		Queued:            s.Queued(),
		Processed:         s.Processed(),
		Failed:            s.Failed(),
		Cancelled:         s.Cancelled(),
		Depth:             s.Depth(),
		Levels:            make(map[string]PriorityStatsSnapshot, numLevels),
		AverageProcessing: s.AverageProcessingTime().String(),
	}
	if l, ok := s.CurrentLevel(); ok {
		snap.CurrentLevel = &l
	}
	for i := range s.perLevel {
		l := PriorityLevel(i)
		snap.Levels[l.String()] = PriorityStatsSnapshot{
			Queued:    s.perLevel[i].Queued(),
			Processed: s.perLevel[i].Processed(),
		}
	}
	return snap
}
