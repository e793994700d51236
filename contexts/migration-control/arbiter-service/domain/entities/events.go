package entities

import (
	"strings"

	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
)

// ComparisonEvent is one shadowed request observed by the router: the HTTP
// status each implementation answered with. Zero means the side was not observed.
type ComparisonEvent struct {
	TransactionID string
	ServiceType   string
	LegacyStatus  int
	ModernStatus  int
}

// Matched reports whether both sides answered and agreed.
func (e ComparisonEvent) Matched() bool {
	return e.LegacyStatus != 0 && e.ModernStatus != 0 && e.LegacyStatus == e.ModernStatus
}

// StateUpdateEvent asks for the persisted state of one account to be reconciled.
type StateUpdateEvent struct {
	TransactionID string
	AccountNumber string
	ServiceType   string
}

func (e StateUpdateEvent) Validate() error {
	if strings.TrimSpace(e.TransactionID) == "" || strings.TrimSpace(e.AccountNumber) == "" {
		return domainerrors.ErrInvalidEvent
	}
	return nil
}
