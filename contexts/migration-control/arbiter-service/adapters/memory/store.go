package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
	"strangler/contexts/migration-control/arbiter-service/ports"
)

const (
	defaultMismatchCap = 1000
	defaultRollbackCap = 100
)

// Store is an in-memory adapter implementing the arbiter ports for local
// runtime and tests. It is not intended as production persistence: state
// lives in one process only.
type Store struct {
	mu           sync.RWMutex
	counters     map[entities.CounterScope]entities.ConsistencyCounters
	scores       map[entities.CounterScope]float64
	weights      map[string]float64
	status       entities.MigrationStatus
	seeded       bool
	lastDecision entities.DecisionRecord
	mismatches   []entities.MismatchRecord
	rollbacks    []entities.RollbackEvent
	seen         map[string]time.Time
	accounts     map[string][]entities.AccountSnapshot
	mismatchCap  int
	rollbackCap  int
	sequence     uint64
	logger       *slog.Logger
}

// NewStore creates an empty store seeded with the given account rows.
func NewStore(accounts []entities.AccountSnapshot, logger *slog.Logger) *Store {
	s := &Store{
		counters:    make(map[entities.CounterScope]entities.ConsistencyCounters),
		scores:      make(map[entities.CounterScope]float64),
		weights:     make(map[string]float64),
		seen:        make(map[string]time.Time),
		accounts:    make(map[string][]entities.AccountSnapshot),
		mismatchCap: defaultMismatchCap,
		rollbackCap: defaultRollbackCap,
		logger:      application.ResolveLogger(logger),
	}
	for _, account := range accounts {
		s.accounts[account.AccountNumber] = append(s.accounts[account.AccountNumber], account)
	}
	return s
}

// WithLogCaps overrides the mismatch and rollback retention.
func (s *Store) WithLogCaps(mismatchCap int, rollbackCap int) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mismatchCap > 0 {
		s.mismatchCap = mismatchCap
	}
	if rollbackCap > 0 {
		s.rollbackCap = rollbackCap
	}
	return s
}

func (s *Store) Seed(_ context.Context, services []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, service := range services {
		if _, ok := s.weights[service]; !ok {
			s.weights[service] = 0
		}
	}
	if !s.seeded {
		s.status = entities.MigrationStatusPending
		s.seeded = true
	}
	return nil
}

func (s *Store) IncrementCounters(
	_ context.Context,
	scopes []entities.CounterScope,
	matched bool,
) (map[entities.CounterScope]entities.ConsistencyCounters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[entities.CounterScope]entities.ConsistencyCounters, len(scopes))
	for _, scope := range scopes {
		next := s.counters[scope].Record(matched)
		s.counters[scope] = next
		s.scores[scope] = next.Score()
		out[scope] = next
	}
	return out, nil
}

func (s *Store) Counters(_ context.Context, scope entities.CounterScope) (entities.ConsistencyCounters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[scope], nil
}

func (s *Store) Score(_ context.Context, scope entities.CounterScope) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if score, ok := s.scores[scope]; ok {
		return score, nil
	}
	return 100.0, nil
}

func (s *Store) Weight(_ context.Context, service string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights[service], nil
}

func (s *Store) Status(_ context.Context) (entities.MigrationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == "" {
		return entities.MigrationStatusPending, nil
	}
	return s.status, nil
}

func (s *Store) SetStatus(_ context.Context, status entities.MigrationStatus, record entities.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.lastDecision = record
	return nil
}

func (s *Store) ApplyDecision(_ context.Context, update ports.DecisionUpdate) error {
	if update.Weight < 0 || update.Weight > 1 {
		return domainerrors.ErrInvalidWeight
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[update.Service] = update.Weight
	s.status = update.Status
	s.lastDecision = update.Record
	return nil
}

func (s *Store) AppendMismatch(_ context.Context, record entities.MismatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mismatches = append([]entities.MismatchRecord{record}, s.mismatches...)
	if len(s.mismatches) > s.mismatchCap {
		s.mismatches = s.mismatches[:s.mismatchCap]
	}
	return nil
}

func (s *Store) AppendRollback(_ context.Context, event entities.RollbackEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollbacks = append([]entities.RollbackEvent{event}, s.rollbacks...)
	if len(s.rollbacks) > s.rollbackCap {
		s.rollbacks = s.rollbacks[:s.rollbackCap]
	}
	return nil
}

func (s *Store) ListMismatches(_ context.Context, limit int) ([]entities.MismatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.mismatches) {
		limit = len(s.mismatches)
	}
	return append([]entities.MismatchRecord(nil), s.mismatches[:limit]...), nil
}

func (s *Store) ListRollbacks(_ context.Context, limit int) ([]entities.RollbackEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.rollbacks) {
		limit = len(s.rollbacks)
	}
	return append([]entities.RollbackEvent(nil), s.rollbacks[:limit]...), nil
}

func (s *Store) ReserveEvent(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if expiresAt, ok := s.seen[key]; ok && now.Before(expiresAt) {
		return true, nil
	}
	s.seen[key] = now.Add(ttl)
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
	return nil
}

func (s *Store) Snapshot(_ context.Context, services []string) (entities.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	weights := make(map[string]float64, len(services))
	for _, service := range services {
		weights[service] = s.weights[service]
	}
	scopes := make(map[entities.CounterScope]entities.ConsistencyCounters, len(s.counters))
	for scope, counters := range s.counters {
		scopes[scope] = counters
	}
	score, ok := s.scores[entities.ScopeCombined]
	if !ok {
		score = 100.0
	}
	status := s.status
	if status == "" {
		status = entities.MigrationStatusPending
	}
	return entities.Snapshot{
		Weights:          weights,
		Counters:         s.counters[entities.ScopeCombined],
		ConsistencyScore: score,
		Scopes:           scopes,
		Status:           status,
		LastDecision:     s.lastDecision,
	}, nil
}

func (s *Store) Reset(_ context.Context, services []string, record entities.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[entities.CounterScope]entities.ConsistencyCounters)
	s.scores = make(map[entities.CounterScope]float64)
	for _, service := range services {
		s.weights[service] = 0
	}
	s.status = entities.MigrationStatusPending
	s.lastDecision = record
	return nil
}

// GetAccountPair implements ports.AccountRepository over the seeded rows.
func (s *Store) GetAccountPair(_ context.Context, accountNumber string) (entities.AccountSnapshot, entities.AccountSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var legacy, modern *entities.AccountSnapshot
	for i := range s.accounts[accountNumber] {
		row := s.accounts[accountNumber][i]
		if row.IsShadow {
			modern = &row
		} else {
			legacy = &row
		}
	}
	if legacy == nil || modern == nil {
		return entities.AccountSnapshot{}, entities.AccountSnapshot{}, domainerrors.ErrAccountNotFound
	}
	return *legacy, *modern, nil
}

// PutAccount inserts or replaces one account row.
func (s *Store) PutAccount(account entities.AccountSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.accounts[account.AccountNumber]
	for i := range rows {
		if rows[i].IsShadow == account.IsShadow {
			rows[i] = account
			return
		}
	}
	s.accounts[account.AccountNumber] = append(rows, account)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	n := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("mem-%06d", n), nil
}
