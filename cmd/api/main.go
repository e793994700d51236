package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"strangler/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases) and seed state.
// 3) Serve the status surface until SIGINT/SIGTERM.
//
// @title Arbiter API
// @version 1.0
// @description Migration arbiter status and control surface.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI(ctx)
	if err != nil {
		slog.Error("bootstrap api failed", "event", "bootstrap_api_failed", "error", err.Error())
		os.Exit(1)
	}

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		slog.Error("api shutdown close failed", "event", "bootstrap_api_close_failed", "error", err.Error())
	}
	if runErr != nil {
		slog.Error("arbiter api stopped with error", "event", "bootstrap_api_stopped", "error", runErr.Error())
		os.Exit(1)
	}
}
