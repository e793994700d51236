package ports

import (
	"context"
	"time"

	"strangler/contexts/migration-control/arbiter-service/domain/entities"
)

// DecisionUpdate is persisted after the router acknowledged a new weight.
// Weight, status and the last-decision fields are written together.
type DecisionUpdate struct {
	Service string
	Weight  float64
	Status  entities.MigrationStatus
	Record  entities.DecisionRecord
}

// StateStore is the keyed store every loop coordinates through. Counter
// increments must be atomic at the store; callers never read-modify-write.
type StateStore interface {
	// Seed sets every field to its default only if the field is absent.
	Seed(ctx context.Context, services []string) error
	// IncrementCounters bumps total (and matched when matched is true) for each
	// scope and stores the recomputed score in the same atomic step.
	IncrementCounters(
		ctx context.Context,
		scopes []entities.CounterScope,
		matched bool,
	) (map[entities.CounterScope]entities.ConsistencyCounters, error)
	Counters(ctx context.Context, scope entities.CounterScope) (entities.ConsistencyCounters, error)
	Score(ctx context.Context, scope entities.CounterScope) (float64, error)
	Weight(ctx context.Context, service string) (float64, error)
	Status(ctx context.Context) (entities.MigrationStatus, error)
	SetStatus(ctx context.Context, status entities.MigrationStatus, record entities.DecisionRecord) error
	ApplyDecision(ctx context.Context, update DecisionUpdate) error
	AppendMismatch(ctx context.Context, record entities.MismatchRecord) error
	AppendRollback(ctx context.Context, event entities.RollbackEvent) error
	ListMismatches(ctx context.Context, limit int) ([]entities.MismatchRecord, error)
	ListRollbacks(ctx context.Context, limit int) ([]entities.RollbackEvent, error)
	// ReserveEvent records key in the seen-set and reports whether it was
	// already present.
	ReserveEvent(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// ReleaseEvent drops key from the seen-set so a later delivery is processed.
	ReleaseEvent(ctx context.Context, key string) error
	Snapshot(ctx context.Context, services []string) (entities.Snapshot, error)
	Reset(ctx context.Context, services []string, record entities.DecisionRecord) error
}

// AccountRepository reads the legacy/modern account pair. Connectivity
// failures are retried inside the adapter; ErrAccountNotFound is returned when
// either row is missing.
type AccountRepository interface {
	GetAccountPair(ctx context.Context, accountNumber string) (legacy entities.AccountSnapshot, modern entities.AccountSnapshot, err error)
}

// Router sets the absolute canary weight of one service. The call is
// idempotent, so a failed attempt can simply be repeated on the next tick.
type Router interface {
	SetWeight(ctx context.Context, service string, weight float64) error
}

// Message is one record delivered by the broker.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
}

// EventSubscriber registers a topic consumer callback. Delivery is
// at-least-once; the offset advances whatever the handler returns.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, Message) error,
	) error
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts log record identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
