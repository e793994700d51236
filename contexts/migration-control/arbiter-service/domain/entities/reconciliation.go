package entities

import "time"

// DefaultBalanceEpsilon is the largest balance delta that still counts as
// disagreement; deltas strictly below it match.
const DefaultBalanceEpsilon = 1e-4

// AccountSnapshot is one row of the shared accounts table. Every account number
// has exactly one legacy row (IsShadow=false) and one modern row (IsShadow=true).
type AccountSnapshot struct {
	AccountNumber string
	Balance       float64
	IsShadow      bool
	ClientType    string
}

type ReconciliationResult struct {
	TransactionID string
	AccountNumber string
	ServiceType   string
	LegacyBalance float64
	ModernBalance float64
	Delta         float64
	Matched       bool
}

type MismatchKind string

const (
	MismatchKindBalance    MismatchKind = "balance"
	MismatchKindHTTPStatus MismatchKind = "http_status"
)

// MismatchRecord is appended to the bounded mismatch log on every observed
// disagreement between the two implementations.
type MismatchRecord struct {
	RecordID      string       `json:"record_id"`
	Kind          MismatchKind `json:"kind"`
	TransactionID string       `json:"transaction_id"`
	AccountNumber string       `json:"account_number,omitempty"`
	ServiceType   string       `json:"service_type"`
	ClientType    string       `json:"client_type,omitempty"`
	LegacyBalance float64      `json:"legacy_balance,omitempty"`
	ModernBalance float64      `json:"modern_balance,omitempty"`
	Delta         float64      `json:"delta,omitempty"`
	LegacyStatus  int          `json:"legacy_status,omitempty"`
	ModernStatus  int          `json:"modern_status,omitempty"`
	ObservedAt    time.Time    `json:"timestamp"`
}
