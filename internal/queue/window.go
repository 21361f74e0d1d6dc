package queue

import (
	"sync"
	"time"
)

// defaultWindowSize bounds the sliding window when the configuration does
// not specify a size or age.
const defaultWindowSize = 64

type windowSample struct {
	at time.Time
	d  time.Duration
}

// slidingWindow retains the most recent task completion durations, bounded
// by a sample count, an age, or both. Pruning is lazy: it happens on each
// append and each read rather than on a timer.
type slidingWindow struct {
	mu         sync.Mutex
	samples    []windowSample
	maxSamples int
	maxAge     time.Duration
}

func newSlidingWindow(maxSamples int, maxAge time.Duration) *slidingWindow {
	if maxSamples <= 0 && maxAge <= 0 {
		maxSamples = defaultWindowSize
	}
	return &slidingWindow{
		maxSamples: maxSamples,
		maxAge:     maxAge,
	}
}

// append records one completion duration and prunes samples that fell out
// of the window.
func (w *slidingWindow) append(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, windowSample{at: time.Now(), d: d})
	w.prune(time.Now())
}

// average returns the mean duration over the samples still inside the
// window, or zero when the window is empty.
func (w *slidingWindow) average() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(time.Now())
	if len(w.samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, s := range w.samples {
		total += s.d
	}
	return total / time.Duration(len(w.samples))
}

// len reports the number of resident samples after pruning.
func (w *slidingWindow) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(time.Now())
	return len(w.samples)
}

// prune drops samples older than maxAge and, beyond that, all but the most
// recent maxSamples. Callers must hold w.mu.
func (w *slidingWindow) prune(now time.Time) {
	if w.maxAge > 0 {
		cutoff := now.Add(-w.maxAge)
		first := 0
		for first < len(w.samples) && w.samples[first].at.Before(cutoff) {
			first++
		}
		if first > 0 {
			w.samples = append(w.samples[:0], w.samples[first:]...)
		}
	}
	if w.maxSamples > 0 && len(w.samples) > w.maxSamples {
		excess := len(w.samples) - w.maxSamples
		w.samples = append(w.samples[:0], w.samples[excess:]...)
	}
}
