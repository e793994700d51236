package queries

import (
	"context"
	"log/slog"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	"strangler/contexts/migration-control/arbiter-service/ports"
)

type GetStatusResult struct {
	Snapshot  entities.Snapshot
	ScoreMode entities.ScoreMode
}

// GetStatusUseCase assembles the read-only snapshot of every arbiter field.
type GetStatusUseCase struct {
	State     ports.StateStore
	Services  []string
	ScoreMode entities.ScoreMode
	Logger    *slog.Logger
}

func (u GetStatusUseCase) Execute(ctx context.Context) (GetStatusResult, error) {
	snapshot, err := u.State.Snapshot(ctx, u.Services)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("status snapshot failed",
			"event", "arbiter_status_snapshot_failed",
			"module", "migration-control/arbiter-service",
			"layer", "application",
			"error", err.Error(),
		)
		return GetStatusResult{}, err
	}
	if u.ScoreMode != entities.ScoreModeSplit {
		snapshot.Scopes = nil
	}
	return GetStatusResult{Snapshot: snapshot, ScoreMode: u.ScoreMode}, nil
}
