package main

import (
	"context"
	"log/slog"

	"github.com/phrazzld/queue-api/internal/config"
	"github.com/phrazzld/queue-api/internal/queue"
)

// application holds the server's dependencies. The queues are explicitly
// constructed and owned here; there is no process-wide shared instance, so
// independent applications (and tests) can run side by side.
type application struct {
	config *config.Config
	logger *slog.Logger

	serialQueue   *queue.SerialQueue
	priorityQueue *queue.PriorityQueue
}

// newApplication constructs the application's queue instances from
// configuration.
func newApplication(cfg *config.Config, logger *slog.Logger) *application {
	queueCfg := queue.Config{
		Capacity:             cfg.Queue.Capacity,
		RejectWhenFull:       cfg.Queue.RejectWhenFull,
		ProcessTimeWindow:    cfg.Queue.ProcessTimeWindow,
		ProcessTimeWindowAge: cfg.Queue.ProcessTimeWindowAge,
		DrainTimeout:         cfg.Queue.DrainTimeout,
	}

	return &application{
		config:        cfg,
		logger:        logger,
		serialQueue:   queue.NewSerialQueue(queueCfg, logger.With("queue", "serial")),
		priorityQueue: queue.NewPriorityQueue(queueCfg, logger.With("queue", "priority")),
	}
}

// startQueues launches both processor loops.
func (app *application) startQueues(ctx context.Context) {
	app.serialQueue.Start(ctx)
	app.priorityQueue.Start(ctx)
	app.logger.Info("queue processors started")
}

// cleanup drains and closes the queues during shutdown.
func (app *application) cleanup() {
	if err := app.priorityQueue.Close(); err != nil {
		app.logger.Error("failed to close priority queue", "error", err)
	}
	if err := app.serialQueue.Close(); err != nil {
		app.logger.Error("failed to close serial queue", "error", err)
	}
}
