package queries_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"strangler/contexts/migration-control/arbiter-service/adapters/memory"
	"strangler/contexts/migration-control/arbiter-service/application/queries"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
)

func TestListMismatchesLimits(t *testing.T) {
	store := memory.NewStore(nil, nil)
	for i := 0; i < 15; i++ {
		if err := store.AppendMismatch(context.Background(), entities.MismatchRecord{
			TransactionID: fmt.Sprintf("tx-%02d", i),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	query := queries.ListMismatchesUseCase{State: store}

	items, err := query.Execute(context.Background(), queries.ListLogQuery{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(items) != 10 || items[0].TransactionID != "tx-14" {
		t.Fatalf("expected newest 10 records, got %d first=%+v", len(items), items[0])
	}

	items, err = query.Execute(context.Background(), queries.ListLogQuery{Limit: 3})
	if err != nil || len(items) != 3 {
		t.Fatalf("expected 3 records, got %d err=%v", len(items), err)
	}

	for _, limit := range []int{-1, 101} {
		if _, err := query.Execute(context.Background(), queries.ListLogQuery{Limit: limit}); !errors.Is(err, domainerrors.ErrInvalidLimit) {
			t.Fatalf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestGetStatusExposesScopesOnlyInSplitMode(t *testing.T) {
	store := memory.NewStore(nil, nil)
	ctx := context.Background()
	if err := store.Seed(ctx, []string{"php", "python"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.IncrementCounters(ctx, entities.ScopesFor(entities.ScoreModeSplit, entities.ScopeBalance), false); err != nil {
		t.Fatalf("increment: %v", err)
	}

	combined, err := queries.GetStatusUseCase{
		State:     store,
		Services:  []string{"php", "python"},
		ScoreMode: entities.ScoreModeCombined,
	}.Execute(ctx)
	if err != nil {
		t.Fatalf("combined status: %v", err)
	}
	if combined.Snapshot.Scopes != nil {
		t.Fatalf("expected scopes hidden in combined mode")
	}
	if combined.Snapshot.ConsistencyScore != 0 || combined.Snapshot.Counters.Total != 1 {
		t.Fatalf("unexpected combined snapshot: %+v", combined.Snapshot)
	}

	split, err := queries.GetStatusUseCase{
		State:     store,
		Services:  []string{"php", "python"},
		ScoreMode: entities.ScoreModeSplit,
	}.Execute(ctx)
	if err != nil {
		t.Fatalf("split status: %v", err)
	}
	if split.Snapshot.Scopes[entities.ScopeBalance].Total != 1 {
		t.Fatalf("expected balance scope counters, got %+v", split.Snapshot.Scopes)
	}
	if len(split.Snapshot.Weights) != 2 {
		t.Fatalf("expected a weight per service, got %+v", split.Snapshot.Weights)
	}
}
