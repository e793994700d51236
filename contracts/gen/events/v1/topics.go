package v1

// Payload contracts of the two comparison-signal topics. This package is
// generated-contract-only and must stay backward compatible with producers.

const (
	ShadowComparisonTopic = "shadow-requests"
	StateUpdateTopic      = "db-state-updates"
)

// ShadowComparison is produced by the router for every shadowed request.
// A status of zero means that side did not answer.
type ShadowComparison struct {
	TransactionID string  `json:"transaction_id"`
	ServiceType   string  `json:"service_type"`
	LegacyStatus  int     `json:"legacy_status"`
	ModernStatus  int     `json:"modern_status"`
	LegacyLatency float64 `json:"legacy_latency,omitempty"`
	ModernLatency float64 `json:"modern_latency,omitempty"`
	Mode          string  `json:"mode,omitempty"`
}

// StateUpdate is produced by either implementation after it committed a
// balance change for an account.
type StateUpdate struct {
	TransactionID string `json:"transaction_id"`
	AccountNumber string `json:"account_number"`
	ServiceType   string `json:"service_type"`
}
