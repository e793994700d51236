package arbiterservice

import (
	"context"
	"log/slog"
	"time"

	httpadapter "strangler/contexts/migration-control/arbiter-service/adapters/http"
	"strangler/contexts/migration-control/arbiter-service/adapters/memory"
	"strangler/contexts/migration-control/arbiter-service/application/commands"
	"strangler/contexts/migration-control/arbiter-service/application/queries"
	"strangler/contexts/migration-control/arbiter-service/application/workers"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	"strangler/contexts/migration-control/arbiter-service/domain/services"
	"strangler/contexts/migration-control/arbiter-service/ports"
)

// Module is the composition surface of the arbiter.
// Runtime wiring consumes Handler and the workers; Store and Router are only
// set by NewInMemoryModule for tests and local runs.
type Module struct {
	Handler             httpadapter.Handler
	ComparisonConsumer  workers.ShadowComparisonConsumer
	StateUpdateConsumer workers.StateUpdateConsumer
	DecisionEngine      workers.DecisionEngine

	State    ports.StateStore
	Services []string

	Store  *memory.Store
	Router *memory.Router
}

type Dependencies struct {
	State      ports.StateStore
	Accounts   ports.AccountRepository
	Router     ports.Router
	Subscriber ports.EventSubscriber
	Clock      ports.Clock
	IDs        ports.IDGenerator

	Policy             services.DecisionPolicy
	ScoreMode          entities.ScoreMode
	Services           []string
	DecisionServices   []string
	DefaultServiceType string
	BalanceEpsilon     float64
	DecisionInterval   time.Duration

	DedupEnabled bool
	DedupTTL     time.Duration

	ShadowTopic      string
	ShadowGroup      string
	StateUpdateTopic string
	StateUpdateGroup string
	Logger           *slog.Logger
}

// NewModule wires the arbiter use cases and loops against explicit ports.
func NewModule(deps Dependencies) Module {
	var dedup *workers.Deduplicator
	if deps.DedupEnabled {
		dedup = &workers.Deduplicator{State: deps.State, TTL: deps.DedupTTL}
	}

	recordComparison := commands.RecordComparisonUseCase{
		State:              deps.State,
		Clock:              deps.Clock,
		IDGenerator:        deps.IDs,
		ScoreMode:          deps.ScoreMode,
		DefaultServiceType: deps.DefaultServiceType,
		Logger:             deps.Logger,
	}
	reconcile := commands.ReconcileUseCase{
		Accounts:           deps.Accounts,
		State:              deps.State,
		Clock:              deps.Clock,
		IDGenerator:        deps.IDs,
		Epsilon:            deps.BalanceEpsilon,
		ScoreMode:          deps.ScoreMode,
		DefaultServiceType: deps.DefaultServiceType,
		Logger:             deps.Logger,
	}
	reset := commands.ResetUseCase{
		State:    deps.State,
		Router:   deps.Router,
		Clock:    deps.Clock,
		Services: deps.Services,
		Logger:   deps.Logger,
	}

	decisionServices := deps.DecisionServices
	if len(decisionServices) == 0 {
		decisionServices = deps.Services
	}

	return Module{
		Handler: httpadapter.Handler{
			GetStatus: queries.GetStatusUseCase{
				State:     deps.State,
				Services:  deps.Services,
				ScoreMode: deps.ScoreMode,
				Logger:    deps.Logger,
			},
			ListMismatches: queries.ListMismatchesUseCase{State: deps.State},
			ListRollbacks:  queries.ListRollbacksUseCase{State: deps.State},
			Reset:          reset,
			Logger:         deps.Logger,
		},
		ComparisonConsumer: workers.ShadowComparisonConsumer{
			Subscriber:    deps.Subscriber,
			Record:        recordComparison,
			Dedup:         dedup,
			Topic:         deps.ShadowTopic,
			ConsumerGroup: deps.ShadowGroup,
			Logger:        deps.Logger,
		},
		StateUpdateConsumer: workers.StateUpdateConsumer{
			Subscriber:    deps.Subscriber,
			Reconcile:     reconcile,
			Dedup:         dedup,
			Topic:         deps.StateUpdateTopic,
			ConsumerGroup: deps.StateUpdateGroup,
			Logger:        deps.Logger,
		},
		DecisionEngine: workers.DecisionEngine{
			State:     deps.State,
			Router:    deps.Router,
			Clock:     deps.Clock,
			IDGen:     deps.IDs,
			Policy:    deps.Policy,
			ScoreMode: deps.ScoreMode,
			Services:  decisionServices,
			Interval:  deps.DecisionInterval,
			Logger:    deps.Logger,
		},
		State:    deps.State,
		Services: deps.Services,
	}
}

// Seed writes default state for every absent field. Call it once before any
// loop starts.
func (m Module) Seed(ctx context.Context) error {
	return m.State.Seed(ctx, m.Services)
}

// NewInMemoryModule wires the arbiter against in-memory adapters with the
// default decision policy.
func NewInMemoryModule(
	accounts []entities.AccountSnapshot,
	subscriber ports.EventSubscriber,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(accounts, logger)
	router := memory.NewRouter()
	module := NewModule(Dependencies{
		State:              store,
		Accounts:           store,
		Router:             router,
		Subscriber:         subscriber,
		Clock:              store,
		IDs:                store,
		Policy:             services.DefaultDecisionPolicy(),
		ScoreMode:          entities.ScoreModeCombined,
		Services:           []string{"php", "python"},
		DecisionServices:   []string{"php"},
		DefaultServiceType: "php",
		BalanceEpsilon:     entities.DefaultBalanceEpsilon,
		DecisionInterval:   10 * time.Second,
		Logger:             logger,
	})
	module.Store = store
	module.Router = router
	return module
}
