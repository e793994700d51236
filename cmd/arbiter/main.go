package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"strangler/internal/app/bootstrap"
)

// Single-process entrypoint: status surface, consumers and decision loop
// share one process and one state store connection.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildArbiter(ctx)
	if err != nil {
		slog.Error("bootstrap arbiter failed", "event", "bootstrap_arbiter_failed", "error", err.Error())
		os.Exit(1)
	}

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		slog.Error("arbiter shutdown close failed", "event", "bootstrap_arbiter_close_failed", "error", err.Error())
	}
	if runErr != nil {
		slog.Error("arbiter stopped with error", "event", "bootstrap_arbiter_stopped", "error", runErr.Error())
		os.Exit(1)
	}
}
