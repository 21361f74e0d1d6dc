package queue

import "time"

// Config holds construction-time settings shared by both queue variants.
type Config struct {
	// Capacity bounds the number of resident, not-yet-started tasks.
	// Zero means unbounded: admission never suspends.
	Capacity int

	// RejectWhenFull switches bounded admission from cooperative
	// suspension to failing fast with ErrQueueFull.
	RejectWhenFull bool

	// ProcessTimeWindow is the number of recent completions retained for
	// the average-duration stat. Zero falls back to the default window
	// size unless ProcessTimeWindowAge is set.
	ProcessTimeWindow int

	// ProcessTimeWindowAge, when non-zero, additionally drops window
	// samples older than this duration.
	ProcessTimeWindowAge time.Duration

	// DrainTimeout bounds how long Close waits for in-flight and
	// already-admitted tasks to finish before cancelling what remains.
	DrainTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:          100,
		ProcessTimeWindow: defaultWindowSize,
		DrainTimeout:      5 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 5 * time.Second
	}
}
