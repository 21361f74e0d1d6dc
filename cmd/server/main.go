// Package main implements the entry point for the queue API server, which
// owns the task queue instances used to serialize access to a downstream
// resource and exposes their runtime statistics over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/queue-api/internal/config"
	"github.com/phrazzld/queue-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// run loads configuration, wires dependencies and serves HTTP until a
// shutdown signal arrives.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"queue_capacity", cfg.Queue.Capacity,
		"process_time_window", cfg.Queue.ProcessTimeWindow)

	app := newApplication(cfg, appLogger)

	ctx := context.Background()
	app.startQueues(ctx)

	return app.startHTTPServer(ctx, app.setupRouter())
}
