package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
	"strangler/contexts/migration-control/arbiter-service/ports"

	"github.com/redis/go-redis/v9"
)

const (
	decisionTimeLayout       = time.RFC3339Nano
	legacyDecisionTimeLayout = "2006-01-02 15:04:05"
)

// incrementScript bumps total (and matched) for every scope triple in KEYS and
// writes the recomputed score in the same server-side step, so concurrent
// writers can never interleave a stale score.
var incrementScript = redis.NewScript(`
local out = {}
for i = 1, #KEYS, 3 do
  local total = redis.call('INCR', KEYS[i])
  local matched
  if ARGV[1] == '1' then
    matched = redis.call('INCR', KEYS[i + 1])
  else
    matched = tonumber(redis.call('GET', KEYS[i + 1]) or '0')
  end
  redis.call('SET', KEYS[i + 2], tostring(matched * 100 / total))
  table.insert(out, total)
  table.insert(out, matched)
end
return out
`)

// Options controls key prefix and log retention.
type Options struct {
	KeyPrefix   string
	MismatchCap int
	RollbackCap int
}

// Store implements ports.StateStore on Redis.
type Store struct {
	client      redis.UniversalClient
	keys        keyspace
	mismatchCap int64
	rollbackCap int64
	logger      *slog.Logger
}

func NewStore(client redis.UniversalClient, opts Options, logger *slog.Logger) *Store {
	mismatchCap := opts.MismatchCap
	if mismatchCap <= 0 {
		mismatchCap = 1000
	}
	rollbackCap := opts.RollbackCap
	if rollbackCap <= 0 {
		rollbackCap = 100
	}
	return &Store{
		client:      client,
		keys:        keyspace{prefix: opts.KeyPrefix},
		mismatchCap: int64(mismatchCap),
		rollbackCap: int64(rollbackCap),
		logger:      application.ResolveLogger(logger),
	}
}

func (s *Store) Seed(ctx context.Context, services []string) error {
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, scope := range allScopes {
			pipe.SetNX(ctx, s.keys.total(scope), 0, 0)
			pipe.SetNX(ctx, s.keys.matched(scope), 0, 0)
			pipe.SetNX(ctx, s.keys.score(scope), formatFloat(100.0), 0)
		}
		for _, service := range services {
			pipe.SetNX(ctx, s.keys.weight(service), formatFloat(0), 0)
		}
		pipe.SetNX(ctx, s.keys.key(keyStatus), string(entities.MigrationStatusPending), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed arbiter state: %w", err)
	}
	return nil
}

func (s *Store) IncrementCounters(
	ctx context.Context,
	scopes []entities.CounterScope,
	matched bool,
) (map[entities.CounterScope]entities.ConsistencyCounters, error) {
	if len(scopes) == 0 {
		return map[entities.CounterScope]entities.ConsistencyCounters{}, nil
	}
	keys := make([]string, 0, len(scopes)*3)
	for _, scope := range scopes {
		keys = append(keys, s.keys.total(scope), s.keys.matched(scope), s.keys.score(scope))
	}
	flag := "0"
	if matched {
		flag = "1"
	}

	values, err := incrementScript.Run(ctx, s.client, keys, flag).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("increment counters: %w", err)
	}
	if len(values) != len(scopes)*2 {
		return nil, fmt.Errorf("increment counters: unexpected reply length %d", len(values))
	}

	out := make(map[entities.CounterScope]entities.ConsistencyCounters, len(scopes))
	for i, scope := range scopes {
		out[scope] = entities.ConsistencyCounters{
			Total:   values[i*2],
			Matched: values[i*2+1],
		}
	}
	return out, nil
}

func (s *Store) Counters(ctx context.Context, scope entities.CounterScope) (entities.ConsistencyCounters, error) {
	values, err := s.client.MGet(ctx, s.keys.total(scope), s.keys.matched(scope)).Result()
	if err != nil {
		return entities.ConsistencyCounters{}, fmt.Errorf("read counters: %w", err)
	}
	return entities.ConsistencyCounters{
		Total:   parseInt(values[0]),
		Matched: parseInt(values[1]),
	}, nil
}

func (s *Store) Score(ctx context.Context, scope entities.CounterScope) (float64, error) {
	raw, err := s.client.Get(ctx, s.keys.score(scope)).Result()
	if errors.Is(err, redis.Nil) {
		return 100.0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read score: %w", err)
	}
	return parseFloat(raw, 100.0), nil
}

func (s *Store) Weight(ctx context.Context, service string) (float64, error) {
	raw, err := s.client.Get(ctx, s.keys.weight(service)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read weight: %w", err)
	}
	return parseFloat(raw, 0), nil
}

func (s *Store) Status(ctx context.Context) (entities.MigrationStatus, error) {
	raw, err := s.client.Get(ctx, s.keys.key(keyStatus)).Result()
	if errors.Is(err, redis.Nil) {
		return entities.MigrationStatusPending, nil
	}
	if err != nil {
		return "", fmt.Errorf("read migration status: %w", err)
	}
	return parseStatus(raw), nil
}

func (s *Store) SetStatus(ctx context.Context, status entities.MigrationStatus, record entities.DecisionRecord) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.keys.key(keyStatus), string(status), 0)
		s.writeDecision(ctx, pipe, record)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set migration status: %w", err)
	}
	return nil
}

func (s *Store) ApplyDecision(ctx context.Context, update ports.DecisionUpdate) error {
	if update.Weight < 0 || update.Weight > 1 {
		return domainerrors.ErrInvalidWeight
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.keys.weight(update.Service), formatFloat(update.Weight), 0)
		pipe.Set(ctx, s.keys.key(keyStatus), string(update.Status), 0)
		s.writeDecision(ctx, pipe, update.Record)
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply decision: %w", err)
	}
	return nil
}

func (s *Store) AppendMismatch(ctx context.Context, record entities.MismatchRecord) error {
	return s.appendBounded(ctx, s.keys.key(keyMismatchLog), s.mismatchCap, record)
}

func (s *Store) AppendRollback(ctx context.Context, event entities.RollbackEvent) error {
	return s.appendBounded(ctx, s.keys.key(keyRollbackLog), s.rollbackCap, event)
}

func (s *Store) ListMismatches(ctx context.Context, limit int) ([]entities.MismatchRecord, error) {
	raw, err := s.client.LRange(ctx, s.keys.key(keyMismatchLog), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list mismatches: %w", err)
	}
	items := make([]entities.MismatchRecord, 0, len(raw))
	for _, entry := range raw {
		var record entities.MismatchRecord
		if err := json.Unmarshal([]byte(entry), &record); err != nil {
			s.skipEntry(keyMismatchLog, err)
			continue
		}
		items = append(items, record)
	}
	return items, nil
}

func (s *Store) ListRollbacks(ctx context.Context, limit int) ([]entities.RollbackEvent, error) {
	raw, err := s.client.LRange(ctx, s.keys.key(keyRollbackLog), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list rollbacks: %w", err)
	}
	items := make([]entities.RollbackEvent, 0, len(raw))
	for _, entry := range raw {
		var event entities.RollbackEvent
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			s.skipEntry(keyRollbackLog, err)
			continue
		}
		items = append(items, event)
	}
	return items, nil
}

func (s *Store) ReserveEvent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	created, err := s.client.SetNX(ctx, s.keys.seen(key), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve event: %w", err)
	}
	return !created, nil
}

func (s *Store) ReleaseEvent(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keys.seen(key)).Err(); err != nil {
		return fmt.Errorf("release event: %w", err)
	}
	return nil
}

func (s *Store) Snapshot(ctx context.Context, services []string) (entities.Snapshot, error) {
	keys := []string{
		s.keys.key(keyScore),
		s.keys.key(keyStatus),
		s.keys.key(keyLastDecision),
		s.keys.key(keyLastDecisionTime),
		s.keys.key(keyLastDecisionWeight),
		s.keys.key(keyLastDecisionService),
	}
	for _, scope := range allScopes {
		keys = append(keys, s.keys.total(scope), s.keys.matched(scope))
	}
	for _, service := range services {
		keys = append(keys, s.keys.weight(service))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return entities.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	snapshot := entities.Snapshot{
		ConsistencyScore: parseFloat(values[0], 100.0),
		Status:           parseStatus(values[1]),
		LastDecision: entities.DecisionRecord{
			Kind:            parseDecisionKind(values[2]),
			DecidedAt:       parseTime(values[3]),
			ResultingWeight: parseFloat(values[4], 0),
			Service:         stringValue(values[5]),
		},
		Scopes:  make(map[entities.CounterScope]entities.ConsistencyCounters, len(allScopes)),
		Weights: make(map[string]float64, len(services)),
	}
	offset := 6
	for _, scope := range allScopes {
		snapshot.Scopes[scope] = entities.ConsistencyCounters{
			Total:   parseInt(values[offset]),
			Matched: parseInt(values[offset+1]),
		}
		offset += 2
	}
	for _, service := range services {
		snapshot.Weights[service] = parseFloat(values[offset], 0)
		offset++
	}
	snapshot.Counters = snapshot.Scopes[entities.ScopeCombined]
	return snapshot, nil
}

func (s *Store) Reset(ctx context.Context, services []string, record entities.DecisionRecord) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, scope := range allScopes {
			pipe.Set(ctx, s.keys.total(scope), 0, 0)
			pipe.Set(ctx, s.keys.matched(scope), 0, 0)
			pipe.Set(ctx, s.keys.score(scope), formatFloat(100.0), 0)
		}
		for _, service := range services {
			pipe.Set(ctx, s.keys.weight(service), formatFloat(0), 0)
		}
		pipe.Set(ctx, s.keys.key(keyStatus), string(entities.MigrationStatusPending), 0)
		s.writeDecision(ctx, pipe, record)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset arbiter state: %w", err)
	}
	return nil
}

func (s *Store) writeDecision(ctx context.Context, pipe redis.Pipeliner, record entities.DecisionRecord) {
	pipe.Set(ctx, s.keys.key(keyLastDecision), string(record.Kind), 0)
	pipe.Set(ctx, s.keys.key(keyLastDecisionTime), record.DecidedAt.UTC().Format(decisionTimeLayout), 0)
	pipe.Set(ctx, s.keys.key(keyLastDecisionWeight), formatFloat(record.ResultingWeight), 0)
	pipe.Set(ctx, s.keys.key(keyLastDecisionService), record.Service, 0)
}

func (s *Store) appendBounded(ctx context.Context, key string, limit int64, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, limit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append %s: %w", key, err)
	}
	return nil
}

func (s *Store) skipEntry(list string, err error) {
	s.logger.Warn("undecodable log entry skipped",
		"event", "arbiter_redis_log_entry_skipped",
		"module", "migration-control/arbiter-service",
		"layer", "adapter",
		"list", list,
		"error", err.Error(),
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}

func parseFloat(v any, fallback float64) float64 {
	raw := stringValue(v)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseInt(v any) int64 {
	raw := stringValue(v)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseStatus(v any) entities.MigrationStatus {
	status := entities.MigrationStatus(stringValue(v))
	if !status.Valid() {
		return entities.MigrationStatusPending
	}
	return status
}

func parseDecisionKind(v any) entities.DecisionKind {
	raw := stringValue(v)
	if raw == "" {
		return entities.DecisionKindNone
	}
	return entities.DecisionKind(raw)
}

func parseTime(v any) time.Time {
	raw := stringValue(v)
	for _, layout := range []string{decisionTimeLayout, legacyDecisionTimeLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
