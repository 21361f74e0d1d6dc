package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Queue  QueueConfig  `mapstructure:"queue"  validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// QueueConfig contains the construction settings for the task queues owned
// by the server.
type QueueConfig struct {
	// Capacity bounds the number of resident, not-yet-started tasks.
	// Zero means unbounded admission.
	Capacity int `mapstructure:"capacity" validate:"gte=0"`

	// RejectWhenFull makes bounded admission fail fast instead of
	// suspending the producer until space frees.
	RejectWhenFull bool `mapstructure:"reject_when_full"`

	// ProcessTimeWindow is the number of recent completions backing the
	// average-duration stat.
	ProcessTimeWindow int `mapstructure:"process_time_window" validate:"gte=0"`

	// ProcessTimeWindowAge optionally ages samples out of the window.
	ProcessTimeWindowAge time.Duration `mapstructure:"process_time_window_age"`

	// DrainTimeout bounds how long shutdown waits for admitted tasks to
	// finish.
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}
