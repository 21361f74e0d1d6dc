package api

// SubmitTaskRequest is the payload for POST /api/tasks. It describes a
// simulated unit of downstream work to run through the prioritized queue.
type SubmitTaskRequest struct {
	// SleepMs is how long the work body takes, in milliseconds.
	SleepMs int `json:"sleep_ms" validate:"gte=0,lte=60000"`

	// Priority is numeric grouping metadata; it never reorders tasks
	// within a level.
	Priority int `json:"priority"`

	// PriorityLevel selects the scheduling lane. Empty means normal.
	PriorityLevel string `json:"priority_level" validate:"omitempty,oneof=low normal high critical emergency"`

	// TimeoutMs bounds the task's execution time. Zero means no timeout.
	TimeoutMs int `json:"timeout_ms" validate:"gte=0"`

	// Fail makes the work body return an error, for exercising the
	// failure path.
	Fail bool `json:"fail"`
}

// SubmitTaskResponse is the success payload for POST /api/tasks.
type SubmitTaskResponse struct {
	Result     string `json:"result"`
	DurationMs int64  `json:"duration_ms"`
}
