package queries

import (
	"context"

	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
	"strangler/contexts/migration-control/arbiter-service/ports"
)

const (
	defaultLogLimit = 10
	maxLogLimit     = 100
)

type ListLogQuery struct {
	Limit int
}

type ListMismatchesUseCase struct {
	State ports.StateStore
}

// Execute returns the newest mismatch records first.
func (u ListMismatchesUseCase) Execute(ctx context.Context, query ListLogQuery) ([]entities.MismatchRecord, error) {
	limit, err := resolveLimit(query.Limit)
	if err != nil {
		return nil, err
	}
	return u.State.ListMismatches(ctx, limit)
}

type ListRollbacksUseCase struct {
	State ports.StateStore
}

func (u ListRollbacksUseCase) Execute(ctx context.Context, query ListLogQuery) ([]entities.RollbackEvent, error) {
	limit, err := resolveLimit(query.Limit)
	if err != nil {
		return nil, err
	}
	return u.State.ListRollbacks(ctx, limit)
}

func resolveLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return defaultLogLimit, nil
	case limit < 0 || limit > maxLogLimit:
		return 0, domainerrors.ErrInvalidLimit
	default:
		return limit, nil
	}
}
