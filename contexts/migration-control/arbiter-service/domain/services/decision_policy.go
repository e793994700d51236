package services

import (
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
)

// Action is the outcome of evaluating one decision tick.
type Action string

const (
	ActionInsufficientSamples Action = "insufficient_samples"
	ActionEnsureComplete      Action = "ensure_complete"
	ActionPromote             Action = "promote"
	ActionRollback            Action = "rollback"
	ActionHold                Action = "hold"
)

// DecisionPolicy carries the thresholds of the promote/rollback control law.
// Thresholds are percentages, Increment is a weight fraction.
type DecisionPolicy struct {
	MinSamples        int64
	PromoteThreshold  float64
	RollbackThreshold float64
	Increment         float64
}

func DefaultDecisionPolicy() DecisionPolicy {
	return DecisionPolicy{
		MinSamples:        10,
		PromoteThreshold:  99.0,
		RollbackThreshold: 95.0,
		Increment:         0.10,
	}
}

// DecisionInput is everything one tick reads fresh from the state store.
type DecisionInput struct {
	Samples int64
	Score   float64
	Weight  float64
	Status  entities.MigrationStatus
}

type Decision struct {
	Action       Action
	TargetWeight float64
}

// Decide applies the control law. It keeps no state between calls; the same
// input always yields the same decision.
func (p DecisionPolicy) Decide(in DecisionInput) Decision {
	weight := NormalizeWeight(in.Weight)
	if in.Samples < p.MinSamples {
		return Decision{Action: ActionInsufficientSamples, TargetWeight: weight}
	}
	if weight >= 1.0 {
		return Decision{Action: ActionEnsureComplete, TargetWeight: 1.0}
	}
	if in.Score >= p.PromoteThreshold {
		return Decision{Action: ActionPromote, TargetWeight: NextWeight(weight, p.Increment)}
	}
	if in.Score < p.RollbackThreshold {
		// Already rolled back and nothing is routed to modern: repeating the
		// router call would only grow the rollback log.
		if weight == 0 && in.Status == entities.MigrationStatusRollback {
			return Decision{Action: ActionHold, TargetWeight: 0}
		}
		return Decision{Action: ActionRollback, TargetWeight: 0}
	}
	return Decision{Action: ActionHold, TargetWeight: weight}
}
