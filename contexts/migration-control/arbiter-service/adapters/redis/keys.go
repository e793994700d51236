package redisadapter

import (
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
)

// Key names match the fields the dashboard already reads, so an empty prefix
// keeps the store layout compatible with existing readers.
const (
	keyTotal               = "total_transactions"
	keyMatched             = "matched_transactions"
	keyScore               = "consistency_score"
	keyStatus              = "migration_status"
	keyLastDecision        = "last_decision"
	keyLastDecisionTime    = "last_decision_time"
	keyLastDecisionWeight  = "last_decision_weight"
	keyLastDecisionService = "last_decision_service"
	keyMismatchLog         = "errors"
	keyRollbackLog         = "rollback_events"
	keySeenPrefix          = "seen:"
	weightSuffix           = "_weight"
)

var allScopes = []entities.CounterScope{
	entities.ScopeCombined,
	entities.ScopeHTTPStatus,
	entities.ScopeBalance,
}

type keyspace struct {
	prefix string
}

func (k keyspace) key(name string) string {
	return k.prefix + name
}

func (k keyspace) scoped(scope entities.CounterScope, name string) string {
	if scope == entities.ScopeCombined || scope == "" {
		return k.key(name)
	}
	return k.key(string(scope) + ":" + name)
}

func (k keyspace) total(scope entities.CounterScope) string   { return k.scoped(scope, keyTotal) }
func (k keyspace) matched(scope entities.CounterScope) string { return k.scoped(scope, keyMatched) }
func (k keyspace) score(scope entities.CounterScope) string   { return k.scoped(scope, keyScore) }

func (k keyspace) weight(service string) string {
	return k.key(service + weightSuffix)
}

func (k keyspace) seen(key string) string {
	return k.key(keySeenPrefix + key)
}
