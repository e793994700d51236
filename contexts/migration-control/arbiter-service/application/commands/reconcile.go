package commands

import (
	"context"
	"errors"
	"log/slog"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
	"strangler/contexts/migration-control/arbiter-service/domain/services"
	"strangler/contexts/migration-control/arbiter-service/ports"
)

type ReconcileCommand struct {
	Event entities.StateUpdateEvent
}

type ReconcileResult struct {
	Result    entities.ReconciliationResult
	Counters  entities.ConsistencyCounters
	Score     float64
	Abandoned bool
}

// ReconcileUseCase compares the persisted legacy and modern balances of one
// account and folds the outcome into the consistency counters.
type ReconcileUseCase struct {
	Accounts           ports.AccountRepository
	State              ports.StateStore
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	Epsilon            float64
	ScoreMode          entities.ScoreMode
	DefaultServiceType string
	Logger             *slog.Logger
}

// Execute runs reconciliation in this order:
// 1) load the legacy/modern pair (missing row abandons, no counters touched)
// 2) compare balances
// 3) append a mismatch record on disagreement
// 4) increment counters unconditionally.
func (u ReconcileUseCase) Execute(ctx context.Context, cmd ReconcileCommand) (ReconcileResult, error) {
	logger := application.ResolveLogger(u.Logger)
	event := cmd.Event
	if err := event.Validate(); err != nil {
		return ReconcileResult{}, err
	}
	if event.ServiceType == "" {
		event.ServiceType = u.DefaultServiceType
	}

	legacy, modern, err := u.Accounts.GetAccountPair(ctx, event.AccountNumber)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			logger.Warn("reconciliation abandoned, account pair incomplete",
				"event", "arbiter_reconciliation_abandoned",
				"module", "migration-control/arbiter-service",
				"layer", "application",
				"transaction_id", event.TransactionID,
				"account_number", event.AccountNumber,
			)
			return ReconcileResult{Abandoned: true}, nil
		}
		logger.Error("account pair lookup failed",
			"event", "arbiter_reconciliation_lookup_failed",
			"module", "migration-control/arbiter-service",
			"layer", "application",
			"transaction_id", event.TransactionID,
			"account_number", event.AccountNumber,
			"error", err.Error(),
		)
		return ReconcileResult{}, err
	}

	result := services.CompareBalances(event.TransactionID, event.ServiceType, legacy, modern, u.Epsilon)
	if !result.Matched {
		record := entities.MismatchRecord{
			RecordID:      newID(ctx, u.IDGenerator),
			Kind:          entities.MismatchKindBalance,
			TransactionID: event.TransactionID,
			AccountNumber: event.AccountNumber,
			ServiceType:   event.ServiceType,
			ClientType:    legacy.ClientType,
			LegacyBalance: result.LegacyBalance,
			ModernBalance: result.ModernBalance,
			Delta:         result.Delta,
			ObservedAt:    now(u.Clock),
		}
		if err := u.State.AppendMismatch(ctx, record); err != nil {
			logger.Warn("mismatch log append failed",
				"event", "arbiter_mismatch_append_failed",
				"module", "migration-control/arbiter-service",
				"layer", "application",
				"transaction_id", event.TransactionID,
				"error", err.Error(),
			)
		}
	}

	updated, err := u.State.IncrementCounters(ctx, entities.ScopesFor(u.ScoreMode, entities.ScopeBalance), result.Matched)
	if err != nil {
		logger.Error("reconciliation counter update failed",
			"event", "arbiter_reconciliation_counter_update_failed",
			"module", "migration-control/arbiter-service",
			"layer", "application",
			"transaction_id", event.TransactionID,
			"error", err.Error(),
		)
		return ReconcileResult{}, err
	}

	counters := updated[entities.ScopeCombined]
	logger.Info("reconciliation completed",
		"event", "arbiter_reconciliation_completed",
		"module", "migration-control/arbiter-service",
		"layer", "application",
		"transaction_id", event.TransactionID,
		"account_number", event.AccountNumber,
		"legacy_balance", result.LegacyBalance,
		"modern_balance", result.ModernBalance,
		"delta", result.Delta,
		"matched", result.Matched,
		"consistency_score", counters.Score(),
	)
	return ReconcileResult{
		Result:   result,
		Counters: counters,
		Score:    counters.Score(),
	}, nil
}
