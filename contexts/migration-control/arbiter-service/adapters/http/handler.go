package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/application/commands"
	"strangler/contexts/migration-control/arbiter-service/application/queries"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	httptransport "strangler/contexts/migration-control/arbiter-service/transport/http"
)

type Handler struct {
	GetStatus      queries.GetStatusUseCase
	ListMismatches queries.ListMismatchesUseCase
	ListRollbacks  queries.ListRollbacksUseCase
	Reset          commands.ResetUseCase
	Logger         *slog.Logger
}

// GetStatusHandler godoc
// @Summary Get migration status
// @Description Returns weights, consistency counters, migration status and the last decision.
// @Tags arbiter
// @Produce json
// @Success 200 {object} httptransport.StatusResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /status [get]
func (h Handler) GetStatusHandler(ctx context.Context) (httptransport.StatusResponse, error) {
	result, err := h.GetStatus.Execute(ctx)
	if err != nil {
		return httptransport.StatusResponse{}, err
	}
	return httptransport.StatusResponse{
		Success: true,
		Data:    mapStatus(result),
	}, nil
}

// ResetHandler godoc
// @Summary Reset migration state
// @Description Clears counters, restores score 100, sets status pending and zeroes every router weight.
// @Tags arbiter
// @Produce json
// @Success 200 {object} httptransport.ResetResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /reset [post]
func (h Handler) ResetHandler(ctx context.Context) (httptransport.ResetResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("reset request received",
		"event", "http_reset_received",
		"module", "migration-control/arbiter-service",
		"layer", "transport",
	)

	result, err := h.Reset.Execute(ctx)
	if err != nil {
		logger.Error("reset request failed",
			"event", "http_reset_failed",
			"module", "migration-control/arbiter-service",
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.ResetResponse{}, err
	}

	message := "state reset"
	if len(result.RouterFailures) > 0 {
		message = "state reset; some router weights could not be zeroed"
	}
	failures := result.RouterFailures
	if failures == nil {
		failures = []string{}
	}
	return httptransport.ResetResponse{
		Success:        true,
		Message:        message,
		RouterFailures: failures,
	}, nil
}

// ListMismatchesHandler godoc
// @Summary List recent mismatches
// @Description Returns the newest mismatch records first.
// @Tags arbiter
// @Produce json
// @Param limit query int false "Number of records (default 10, max 100)"
// @Success 200 {object} httptransport.ListMismatchesResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /mismatches [get]
func (h Handler) ListMismatchesHandler(ctx context.Context, limit int) (httptransport.ListMismatchesResponse, error) {
	items, err := h.ListMismatches.Execute(ctx, queries.ListLogQuery{Limit: limit})
	if err != nil {
		return httptransport.ListMismatchesResponse{}, err
	}
	result := make([]httptransport.MismatchDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapMismatch(item))
	}
	return httptransport.ListMismatchesResponse{Success: true, Items: result}, nil
}

// ListRollbacksHandler godoc
// @Summary List recent rollbacks
// @Description Returns the newest rollback events first.
// @Tags arbiter
// @Produce json
// @Param limit query int false "Number of events (default 10, max 100)"
// @Success 200 {object} httptransport.ListRollbacksResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /rollbacks [get]
func (h Handler) ListRollbacksHandler(ctx context.Context, limit int) (httptransport.ListRollbacksResponse, error) {
	items, err := h.ListRollbacks.Execute(ctx, queries.ListLogQuery{Limit: limit})
	if err != nil {
		return httptransport.ListRollbacksResponse{}, err
	}
	result := make([]httptransport.RollbackDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.RollbackDTO{
			EventID:         item.EventID,
			Service:         item.Service,
			ScoreAtRollback: item.ScoreAtRollback,
			PreviousWeight:  item.PreviousWeight,
			Timestamp:       formatTime(item.OccurredAt),
		})
	}
	return httptransport.ListRollbacksResponse{Success: true, Items: result}, nil
}

func mapStatus(result queries.GetStatusResult) httptransport.StatusDTO {
	snapshot := result.Snapshot
	weights := make(map[string]float64, len(snapshot.Weights))
	for service, weight := range snapshot.Weights {
		weights[service] = weight
	}

	dto := httptransport.StatusDTO{
		Weights:             weights,
		PHPWeight:           weights["php"],
		PythonWeight:        weights["python"],
		ConsistencyScore:    snapshot.ConsistencyScore,
		TotalTransactions:   snapshot.Counters.Total,
		MatchedTransactions: snapshot.Counters.Matched,
		MigrationStatus:     string(snapshot.Status),
		LastDecision:        string(snapshot.LastDecision.Kind),
		LastDecisionTime:    formatTime(snapshot.LastDecision.DecidedAt),
		LastDecisionWeight:  snapshot.LastDecision.ResultingWeight,
		LastDecisionService: snapshot.LastDecision.Service,
		ScoreMode:           string(result.ScoreMode),
	}
	if dto.LastDecision == "" {
		dto.LastDecision = string(entities.DecisionKindNone)
	}
	if len(snapshot.Scopes) > 0 {
		dto.Scopes = make(map[string]httptransport.ScopeCountersDTO, len(snapshot.Scopes))
		for scope, counters := range snapshot.Scopes {
			dto.Scopes[string(scope)] = httptransport.ScopeCountersDTO{
				TotalTransactions:   counters.Total,
				MatchedTransactions: counters.Matched,
				ConsistencyScore:    counters.Score(),
			}
		}
	}
	return dto
}

func mapMismatch(item entities.MismatchRecord) httptransport.MismatchDTO {
	return httptransport.MismatchDTO{
		RecordID:      item.RecordID,
		Kind:          string(item.Kind),
		TransactionID: item.TransactionID,
		AccountNumber: item.AccountNumber,
		ServiceType:   item.ServiceType,
		ClientType:    item.ClientType,
		LegacyBalance: item.LegacyBalance,
		ModernBalance: item.ModernBalance,
		Delta:         item.Delta,
		LegacyStatus:  item.LegacyStatus,
		ModernStatus:  item.ModernStatus,
		Timestamp:     formatTime(item.ObservedAt),
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
