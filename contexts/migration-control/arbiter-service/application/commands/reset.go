package commands

import (
	"context"
	"log/slog"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	"strangler/contexts/migration-control/arbiter-service/ports"
)

type ResetResult struct {
	Record entities.DecisionRecord
	// RouterFailures lists services whose router weight could not be zeroed.
	// The store reset still stands; the next promote tick starts from zero.
	RouterFailures []string
}

// ResetUseCase starts a new measurement epoch and zeroes every router weight.
type ResetUseCase struct {
	State    ports.StateStore
	Router   ports.Router
	Clock    ports.Clock
	Services []string
	Logger   *slog.Logger
}

func (u ResetUseCase) Execute(ctx context.Context) (ResetResult, error) {
	logger := application.ResolveLogger(u.Logger)
	record := entities.DecisionRecord{
		Kind:            entities.DecisionKindReset,
		ResultingWeight: 0,
		DecidedAt:       now(u.Clock),
	}

	if err := u.State.Reset(ctx, u.Services, record); err != nil {
		logger.Error("state reset failed",
			"event", "arbiter_reset_failed",
			"module", "migration-control/arbiter-service",
			"layer", "application",
			"error", err.Error(),
		)
		return ResetResult{}, err
	}

	result := ResetResult{Record: record}
	for _, service := range u.Services {
		if err := u.Router.SetWeight(ctx, service, 0); err != nil {
			logger.Warn("router weight reset failed",
				"event", "arbiter_reset_router_failed",
				"module", "migration-control/arbiter-service",
				"layer", "application",
				"service", service,
				"error", err.Error(),
			)
			result.RouterFailures = append(result.RouterFailures, service)
		}
	}

	logger.Info("arbiter state reset",
		"event", "arbiter_reset_completed",
		"module", "migration-control/arbiter-service",
		"layer", "application",
		"services", u.Services,
		"router_failures", len(result.RouterFailures),
	)
	return result, nil
}
