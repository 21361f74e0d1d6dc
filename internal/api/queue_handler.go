package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/queue-api/internal/api/shared"
	"github.com/phrazzld/queue-api/internal/queue"
)

// QueueHandler exposes the queues owned by the application over HTTP: a
// stats endpoint per queue and a task submission endpoint that relays
// simulated downstream work through the prioritized queue. The handler is
// a collaborator of the queue core; it renders data, the queue supplies it.
type QueueHandler struct {
	priority *queue.PriorityQueue
	serial   *queue.SerialQueue
	logger   *slog.Logger
}

// NewQueueHandler creates a new QueueHandler for explicitly constructed
// queue instances. There is no process-wide queue; callers own and inject
// their instances.
func NewQueueHandler(priority *queue.PriorityQueue, serial *queue.SerialQueue, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{
		priority: priority,
		serial:   serial,
		logger:   logger,
	}
}

// GetQueueStats handles GET /api/queue/stats. It renders a snapshot of the
// prioritized queue's live stats, or an error payload carrying the failure
// message with a 500-class status.
func (h *QueueHandler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	h.renderStats(w, r, func() interface{} {
		return h.priority.Stats().Snapshot()
	})
}

// GetSerialQueueStats handles GET /api/serial/stats.
func (h *QueueHandler) GetSerialQueueStats(w http.ResponseWriter, r *http.Request) {
	h.renderStats(w, r, func() interface{} {
		return h.serial.Stats().Snapshot()
	})
}

// renderStats runs the snapshot function and writes it as the success
// payload. A panic while gathering stats becomes the error payload instead
// of taking down the connection with a blank 500.
func (h *QueueHandler) renderStats(w http.ResponseWriter, r *http.Request, snapshot func() interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("failed to gather queue stats: %v", rec)
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, err.Error(), err)
		}
	}()
	shared.RespondWithJSON(w, r, http.StatusOK, snapshot())
}

// SubmitTask handles POST /api/tasks. The request describes a simulated
// unit of downstream work; the handler submits it to the prioritized queue
// and awaits the Future, so the response reflects the task's real outcome.
func (h *QueueHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	opts := []queue.TaskOption{queue.WithPriority(req.Priority)}
	if req.PriorityLevel != "" {
		level, err := queue.ParsePriorityLevel(req.PriorityLevel)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		opts = append(opts, queue.WithLevel(level))
	}
	if req.TimeoutMs > 0 {
		opts = append(opts, queue.WithTimeout(time.Duration(req.TimeoutMs)*time.Millisecond))
	}

	sleep := time.Duration(req.SleepMs) * time.Millisecond
	work := func(ctx context.Context) (string, error) {
		if req.Fail {
			return "", errors.New("simulated downstream failure")
		}
		select {
		case <-time.After(sleep):
			return fmt.Sprintf("slept %s", sleep), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	start := time.Now()
	fut, err := queue.Submit(r.Context(), h.priority, work, opts...)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), err.Error(), err)
		return
	}

	result, err := fut.Await(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), err.Error(), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SubmitTaskResponse{
		Result:     result,
		DurationMs: time.Since(start).Milliseconds(),
	})
}
