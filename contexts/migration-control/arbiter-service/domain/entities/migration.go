package entities

import "time"

type MigrationStatus string

const (
	MigrationStatusPending    MigrationStatus = "pending"
	MigrationStatusInProgress MigrationStatus = "in_progress"
	MigrationStatusRollback   MigrationStatus = "rollback"
	MigrationStatusComplete   MigrationStatus = "complete"
)

func (s MigrationStatus) Valid() bool {
	switch s {
	case MigrationStatusPending, MigrationStatusInProgress, MigrationStatusRollback, MigrationStatusComplete:
		return true
	default:
		return false
	}
}

type DecisionKind string

const (
	DecisionKindNone              DecisionKind = "none"
	DecisionKindPromote           DecisionKind = "promote"
	DecisionKindRollback          DecisionKind = "rollback"
	DecisionKindMigrationComplete DecisionKind = "migration_complete"
	DecisionKindReset             DecisionKind = "reset"
)

// DecisionRecord is the last decision the arbiter persisted.
type DecisionRecord struct {
	Kind            DecisionKind
	Service         string
	ResultingWeight float64
	DecidedAt       time.Time
}

// RollbackEvent is appended to the bounded rollback log each time a rollback
// reaches the router.
type RollbackEvent struct {
	EventID         string    `json:"event_id"`
	Service         string    `json:"service"`
	ScoreAtRollback float64   `json:"score_at_rollback"`
	PreviousWeight  float64   `json:"previous_weight"`
	OccurredAt      time.Time `json:"timestamp"`
}

// Snapshot is every field the status surface exposes, read in one pass.
type Snapshot struct {
	Weights          map[string]float64
	Counters         ConsistencyCounters
	ConsistencyScore float64
	Scopes           map[CounterScope]ConsistencyCounters
	Status           MigrationStatus
	LastDecision     DecisionRecord
}
