package services

import (
	"testing"

	"strangler/contexts/migration-control/arbiter-service/domain/entities"
)

func TestDecisionPolicyDecide(t *testing.T) {
	policy := DefaultDecisionPolicy()

	cases := []struct {
		name   string
		input  DecisionInput
		action Action
		target float64
	}{
		{
			name:   "not enough samples even at perfect score",
			input:  DecisionInput{Samples: 9, Score: 100, Weight: 0},
			action: ActionInsufficientSamples,
			target: 0,
		},
		{
			name:   "promote from eighty percent",
			input:  DecisionInput{Samples: 10, Score: 99.5, Weight: 0.8},
			action: ActionPromote,
			target: 0.9,
		},
		{
			name:   "promote caps at one",
			input:  DecisionInput{Samples: 50, Score: 99, Weight: 0.95},
			action: ActionPromote,
			target: 1.0,
		},
		{
			name:   "full weight only ensures complete",
			input:  DecisionInput{Samples: 50, Score: 10, Weight: 1.0, Status: entities.MigrationStatusComplete},
			action: ActionEnsureComplete,
			target: 1.0,
		},
		{
			name:   "rollback below threshold",
			input:  DecisionInput{Samples: 20, Score: 94.9, Weight: 0.6, Status: entities.MigrationStatusInProgress},
			action: ActionRollback,
			target: 0,
		},
		{
			name:   "rollback from pending at zero weight",
			input:  DecisionInput{Samples: 20, Score: 50, Weight: 0, Status: entities.MigrationStatusPending},
			action: ActionRollback,
			target: 0,
		},
		{
			name:   "already rolled back holds",
			input:  DecisionInput{Samples: 20, Score: 50, Weight: 0, Status: entities.MigrationStatusRollback},
			action: ActionHold,
			target: 0,
		},
		{
			name:   "dead zone lower edge holds",
			input:  DecisionInput{Samples: 20, Score: 95.0, Weight: 0.3},
			action: ActionHold,
			target: 0.3,
		},
		{
			name:   "dead zone upper edge holds",
			input:  DecisionInput{Samples: 20, Score: 98.99, Weight: 0.3},
			action: ActionHold,
			target: 0.3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := policy.Decide(tc.input)
			if decision.Action != tc.action {
				t.Fatalf("expected action %s, got %s", tc.action, decision.Action)
			}
			if decision.TargetWeight != tc.target {
				t.Fatalf("expected target %v, got %v", tc.target, decision.TargetWeight)
			}
		})
	}
}

func TestConsistencyScoreTracksEveryObservation(t *testing.T) {
	pattern := []bool{true, true, false, true, false, false, true, true, true, false, true}
	counters := entities.ConsistencyCounters{}
	if counters.Score() != 100.0 {
		t.Fatalf("expected empty score 100, got %v", counters.Score())
	}
	var matched int64
	for i, ok := range pattern {
		counters = counters.Record(ok)
		if ok {
			matched++
		}
		want := float64(matched) / float64(i+1) * 100
		if diff := counters.Score() - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("step %d: expected score %v, got %v", i, want, counters.Score())
		}
		if counters.Matched > counters.Total {
			t.Fatalf("matched %d exceeds total %d", counters.Matched, counters.Total)
		}
	}
}
