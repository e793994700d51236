package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	"strangler/contexts/migration-control/arbiter-service/ports"
)

const unknownTransactionID = "unknown"

type RecordComparisonCommand struct {
	Event entities.ComparisonEvent
}

type RecordComparisonResult struct {
	Matched  bool
	Counters entities.ConsistencyCounters
	Score    float64
}

// RecordComparisonUseCase folds one HTTP-status comparison into the
// consistency counters.
type RecordComparisonUseCase struct {
	State              ports.StateStore
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	ScoreMode          entities.ScoreMode
	DefaultServiceType string
	Logger             *slog.Logger
}

func (u RecordComparisonUseCase) Execute(ctx context.Context, cmd RecordComparisonCommand) (RecordComparisonResult, error) {
	logger := application.ResolveLogger(u.Logger)
	event := cmd.Event
	if strings.TrimSpace(event.TransactionID) == "" {
		event.TransactionID = unknownTransactionID
	}
	if strings.TrimSpace(event.ServiceType) == "" {
		event.ServiceType = u.DefaultServiceType
	}
	matched := event.Matched()

	if !matched {
		u.appendMismatch(ctx, logger, event)
	}

	updated, err := u.State.IncrementCounters(ctx, entities.ScopesFor(u.ScoreMode, entities.ScopeHTTPStatus), matched)
	if err != nil {
		logger.Error("comparison counter update failed",
			"event", "arbiter_comparison_counter_update_failed",
			"module", "migration-control/arbiter-service",
			"layer", "application",
			"transaction_id", event.TransactionID,
			"error", err.Error(),
		)
		return RecordComparisonResult{}, err
	}

	counters := updated[entities.ScopeCombined]
	result := RecordComparisonResult{
		Matched:  matched,
		Counters: counters,
		Score:    counters.Score(),
	}
	logger.Info("comparison recorded",
		"event", "arbiter_comparison_recorded",
		"module", "migration-control/arbiter-service",
		"layer", "application",
		"transaction_id", event.TransactionID,
		"service_type", event.ServiceType,
		"legacy_status", event.LegacyStatus,
		"modern_status", event.ModernStatus,
		"matched", matched,
		"consistency_score", result.Score,
	)
	return result, nil
}

func (u RecordComparisonUseCase) appendMismatch(ctx context.Context, logger *slog.Logger, event entities.ComparisonEvent) {
	record := entities.MismatchRecord{
		RecordID:      newID(ctx, u.IDGenerator),
		Kind:          entities.MismatchKindHTTPStatus,
		TransactionID: event.TransactionID,
		ServiceType:   event.ServiceType,
		LegacyStatus:  event.LegacyStatus,
		ModernStatus:  event.ModernStatus,
		ObservedAt:    now(u.Clock),
	}
	// The mismatch log is diagnostic; losing one entry must not skip the count.
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

func now(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}

func newID(ctx context.Context, gen ports.IDGenerator) string {
	if gen == nil {
		return ""
	}
	id, err := gen.NewID(ctx)
	if err != nil {
		return ""
	}
	return id
}
