package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	"strangler/contexts/migration-control/arbiter-service/domain/services"
	"strangler/contexts/migration-control/arbiter-service/ports"
)

const defaultDecisionInterval = 10 * time.Second

// TickOutcome reports what one tick did for one service.
type TickOutcome struct {
	Service     string
	Action      services.Action
	Samples     int64
	Score       float64
	Weight      float64
	Target      float64
	RouterCalls int
	// Applied is false when the router refused or failed; the same
	// candidate is retried on the next tick.
	Applied bool
}

// DecisionEngine is the single control loop that promotes or rolls back the
// canary weight. Every tick reads score, weight and status fresh from the
// state store, so the loop keeps no memory between ticks and is restart-safe.
type DecisionEngine struct {
	State     ports.StateStore
	Router    ports.Router
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Policy    services.DecisionPolicy
	ScoreMode entities.ScoreMode
	Services  []string
	Interval  time.Duration
	Logger    *slog.Logger
}

// Run ticks every Interval until ctx is cancelled. Tick failures are logged
// and never stop the loop.
func (e DecisionEngine) Run(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	interval := e.Interval
	if interval <= 0 {
		interval = defaultDecisionInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("decision engine started",
		"event", "arbiter_decision_engine_started",
		"module", "migration-control/arbiter-service",
		"layer", "worker",
		"interval", interval.String(),
		"services", e.Services,
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		_, _ = e.RunOnce(ctx)
	}
}

// RunOnce evaluates every configured service once.
func (e DecisionEngine) RunOnce(ctx context.Context) ([]TickOutcome, error) {
	logger := application.ResolveLogger(e.Logger)
	outcomes := make([]TickOutcome, 0, len(e.Services))
	var errs []error
	for _, service := range e.Services {
		outcome, err := e.Tick(ctx, service)
		if err != nil {
			logger.Error("decision tick failed",
				"event", "arbiter_decision_tick_failed",
				"module", "migration-control/arbiter-service",
				"layer", "worker",
				"service", service,
				"error", err.Error(),
			)
			errs = append(errs, fmt.Errorf("%s: %w", service, err))
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, errors.Join(errs...)
}

// Tick applies the promote/rollback/hold rules to one service.
func (e DecisionEngine) Tick(ctx context.Context, service string) (TickOutcome, error) {
	logger := application.ResolveLogger(e.Logger)

	samples, score, err := e.readEvidence(ctx)
	if err != nil {
		return TickOutcome{}, err
	}
	weight, err := e.State.Weight(ctx, service)
	if err != nil {
		return TickOutcome{}, err
	}
	status, err := e.State.Status(ctx)
	if err != nil {
		return TickOutcome{}, err
	}

	decision := e.Policy.Decide(services.DecisionInput{
		Samples: samples,
		Score:   score,
		Weight:  weight,
		Status:  status,
	})
	outcome := TickOutcome{
		Service: service,
		Action:  decision.Action,
		Samples: samples,
		Score:   score,
		Weight:  weight,
		Target:  decision.TargetWeight,
	}

	logger.Debug("decision check",
		"event", "arbiter_decision_check",
		"module", "migration-control/arbiter-service",
		"layer", "worker",
		"service", service,
		"samples", samples,
		"consistency_score", score,
		"weight", weight,
		"action", decision.Action,
	)

	switch decision.Action {
	case services.ActionInsufficientSamples:
		logger.Info("waiting for more samples",
			"event", "arbiter_decision_waiting",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"service", service,
			"samples", samples,
			"min_samples", e.Policy.MinSamples,
		)
		return outcome, nil

	case services.ActionEnsureComplete:
		if status == entities.MigrationStatusComplete {
			return outcome, nil
		}
		done, err := e.allAtFullWeight(ctx, service, 1.0)
		if err != nil {
			return outcome, err
		}
		if !done {
			// migration_status is global; it stays in progress until every
			// decision service has reached full weight.
			return outcome, nil
		}
		record := e.record(entities.DecisionKindMigrationComplete, service, 1.0)
		if err := e.State.SetStatus(ctx, entities.MigrationStatusComplete, record); err != nil {
			return outcome, err
		}
		outcome.Applied = true
		logger.Info("migration complete",
			"event", "arbiter_migration_complete",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"service", service,
		)
		return outcome, nil

	case services.ActionPromote:
		return e.promote(ctx, logger, outcome)

	case services.ActionRollback:
		return e.rollback(ctx, logger, outcome)

	default:
		logger.Info("score in dead zone, holding",
			"event", "arbiter_decision_hold",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"service", service,
			"consistency_score", score,
			"rollback_threshold", e.Policy.RollbackThreshold,
			"promote_threshold", e.Policy.PromoteThreshold,
		)
		return outcome, nil
	}
}

func (e DecisionEngine) promote(ctx context.Context, logger *slog.Logger, outcome TickOutcome) (TickOutcome, error) {
	outcome.RouterCalls++
	if err := e.Router.SetWeight(ctx, outcome.Service, outcome.Target); err != nil {
		logger.Warn("router refused promotion, retrying next tick",
			"event", "arbiter_promote_router_failed",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"service", outcome.Service,
			"target_weight", outcome.Target,
			"error", err.Error(),
		)
		return outcome, nil
	}

	status := entities.MigrationStatusInProgress
	if outcome.Target >= 1.0 {
		done, err := e.allAtFullWeight(ctx, outcome.Service, outcome.Target)
		if err != nil {
			return outcome, err
		}
		if done {
			status = entities.MigrationStatusComplete
		}
	}
	if err := e.State.ApplyDecision(ctx, ports.DecisionUpdate{
		Service: outcome.Service,
		Weight:  outcome.Target,
		Status:  status,
		Record:  e.record(entities.DecisionKindPromote, outcome.Service, outcome.Target),
	}); err != nil {
		return outcome, err
	}
	outcome.Applied = true

	logger.Info("canary weight promoted",
		"event", "arbiter_promoted",
		"module", "migration-control/arbiter-service",
		"layer", "worker",
		"service", outcome.Service,
		"previous_weight", outcome.Weight,
		"weight", outcome.Target,
		"consistency_score", outcome.Score,
		"migration_status", status,
	)
	return outcome, nil
}

func (e DecisionEngine) rollback(ctx context.Context, logger *slog.Logger, outcome TickOutcome) (TickOutcome, error) {
	outcome.RouterCalls++
	if err := e.Router.SetWeight(ctx, outcome.Service, 0); err != nil {
		logger.Warn("router refused rollback, retrying next tick",
			"event", "arbiter_rollback_router_failed",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"service", outcome.Service,
			"error", err.Error(),
		)
		return outcome, nil
	}

	record := e.record(entities.DecisionKindRollback, outcome.Service, 0)
	if err := e.State.ApplyDecision(ctx, ports.DecisionUpdate{
		Service: outcome.Service,
		Weight:  0,
		Status:  entities.MigrationStatusRollback,
		Record:  record,
	}); err != nil {
		return outcome, err
	}
	outcome.Applied = true

	event := entities.RollbackEvent{
		EventID:         e.newID(ctx),
		Service:         outcome.Service,
		ScoreAtRollback: outcome.Score,
		PreviousWeight:  outcome.Weight,
		OccurredAt:      record.DecidedAt,
	}
	if err := e.State.AppendRollback(ctx, event); err != nil {
		logger.Warn("rollback log append failed",
			"event", "arbiter_rollback_append_failed",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"service", outcome.Service,
			"error", err.Error(),
		)
	}

	logger.Warn("canary weight rolled back",
		"event", "arbiter_rolled_back",
		"module", "migration-control/arbiter-service",
		"layer", "worker",
		"service", outcome.Service,
		"previous_weight", outcome.Weight,
		"consistency_score", outcome.Score,
	)
	return outcome, nil
}

// allAtFullWeight reports whether every decision service is at weight 1.0,
// taking target as the weight of service.
func (e DecisionEngine) allAtFullWeight(ctx context.Context, service string, target float64) (bool, error) {
	if services.NormalizeWeight(target) < 1.0 {
		return false, nil
	}
	for _, other := range e.Services {
		if other == service {
			continue
		}
		weight, err := e.State.Weight(ctx, other)
		if err != nil {
			return false, err
		}
		if services.NormalizeWeight(weight) < 1.0 {
			return false, nil
		}
	}
	return true, nil
}

// readEvidence returns the sample count and score the policy acts on. In
// split mode both signals must have enough samples and the weaker score wins.
func (e DecisionEngine) readEvidence(ctx context.Context) (int64, float64, error) {
	var (
		samples int64 = -1
		score         = 100.0
	)
	for _, scope := range entities.DecisionScopes(e.ScoreMode) {
		counters, err := e.State.Counters(ctx, scope)
		if err != nil {
			return 0, 0, err
		}
		scopeScore, err := e.State.Score(ctx, scope)
		if err != nil {
			return 0, 0, err
		}
		if samples < 0 || counters.Total < samples {
			samples = counters.Total
		}
		if scopeScore < score {
			score = scopeScore
		}
	}
	if samples < 0 {
		samples = 0
	}
	return samples, score, nil
}

func (e DecisionEngine) record(kind entities.DecisionKind, service string, weight float64) entities.DecisionRecord {
	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}
	return entities.DecisionRecord{
		Kind:            kind,
		Service:         service,
		ResultingWeight: weight,
		DecidedAt:       now,
	}
}

func (e DecisionEngine) newID(ctx context.Context) string {
	if e.IDGen == nil {
		return ""
	}
	id, err := e.IDGen.NewID(ctx)
	if err != nil {
		return ""
	}
	return id
}
