package memory

import (
	"context"
	"math"
	"sync"
	"testing"

	"strangler/contexts/migration-control/arbiter-service/domain/entities"
)

func TestIncrementCountersConcurrentWritersLoseNoUpdates(t *testing.T) {
	store := NewStore(nil, nil)
	ctx := context.Background()
	if err := store.Seed(ctx, []string{"php"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const writers = 300
	scopes := entities.ScopesFor(entities.ScoreModeSplit, entities.ScopeBalance)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(matched bool) {
			defer wg.Done()
			if _, err := store.IncrementCounters(ctx, scopes, matched); err != nil {
				t.Errorf("increment: %v", err)
			}
		}(i%3 != 0)
	}
	wg.Wait()

	for _, scope := range scopes {
		counters, err := store.Counters(ctx, scope)
		if err != nil {
			t.Fatalf("counters %s: %v", scope, err)
		}
		if counters.Total != writers || counters.Matched != 200 {
			t.Fatalf("scope %s: expected 300/200, got %+v", scope, counters)
		}
		score, err := store.Score(ctx, scope)
		if err != nil {
			t.Fatalf("score %s: %v", scope, err)
		}
		if math.Abs(score-counters.Score()) > 1e-9 {
			t.Fatalf("scope %s: stored score %v disagrees with counters %v", scope, score, counters.Score())
		}
	}
}

func TestListMismatchesKeepsNewestWithinCap(t *testing.T) {
	store := NewStore(nil, nil).WithLogCaps(3, 3)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := store.AppendMismatch(ctx, entities.MismatchRecord{TransactionID: id}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	items, err := store.ListMismatches(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 || items[0].TransactionID != "d" || items[2].TransactionID != "b" {
		t.Fatalf("unexpected mismatch log: %+v", items)
	}
}
