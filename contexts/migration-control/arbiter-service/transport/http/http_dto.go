package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ScopeCountersDTO struct {
	TotalTransactions   int64   `json:"total_transactions"`
	MatchedTransactions int64   `json:"matched_transactions"`
	ConsistencyScore    float64 `json:"consistency_score"`
}

// StatusDTO keeps the flat per-service weight fields next to the weights map
// so existing dashboards keep reading php_weight and python_weight.
type StatusDTO struct {
	Weights             map[string]float64          `json:"weights"`
	PHPWeight           float64                     `json:"php_weight"`
	PythonWeight        float64                     `json:"python_weight"`
	ConsistencyScore    float64                     `json:"consistency_score"`
	TotalTransactions   int64                       `json:"total_transactions"`
	MatchedTransactions int64                       `json:"matched_transactions"`
	MigrationStatus     string                      `json:"migration_status"`
	LastDecision        string                      `json:"last_decision"`
	LastDecisionTime    string                      `json:"last_decision_time"`
	LastDecisionWeight  float64                     `json:"last_decision_weight"`
	LastDecisionService string                      `json:"last_decision_service"`
	ScoreMode           string                      `json:"score_mode"`
	Scopes              map[string]ScopeCountersDTO `json:"scopes,omitempty"`
}

type StatusResponse struct {
	Success bool      `json:"success"`
	Data    StatusDTO `json:"data"`
}

type ResetResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	RouterFailures []string `json:"router_failures"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type MismatchDTO struct {
	RecordID      string  `json:"record_id"`
	Kind          string  `json:"kind"`
	TransactionID string  `json:"transaction_id"`
	AccountNumber string  `json:"account_number,omitempty"`
	ServiceType   string  `json:"service_type"`
	ClientType    string  `json:"client_type,omitempty"`
	LegacyBalance float64 `json:"legacy_balance,omitempty"`
	ModernBalance float64 `json:"modern_balance,omitempty"`
	Delta         float64 `json:"delta,omitempty"`
	LegacyStatus  int     `json:"legacy_status,omitempty"`
	ModernStatus  int     `json:"modern_status,omitempty"`
	Timestamp     string  `json:"timestamp"`
}

type ListMismatchesResponse struct {
	Success bool          `json:"success"`
	Items   []MismatchDTO `json:"items"`
}

type RollbackDTO struct {
	EventID         string  `json:"event_id"`
	Service         string  `json:"service"`
	ScoreAtRollback float64 `json:"score_at_rollback"`
	PreviousWeight  float64 `json:"previous_weight"`
	Timestamp       string  `json:"timestamp"`
}

type ListRollbacksResponse struct {
	Success bool          `json:"success"`
	Items   []RollbackDTO `json:"items"`
}
