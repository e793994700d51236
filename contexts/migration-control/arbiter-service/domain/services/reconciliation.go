package services

import (
	"math"

	"strangler/contexts/migration-control/arbiter-service/domain/entities"
)

// CompareBalances pairs the legacy and modern rows of one account. The pair
// matches only when the delta is strictly below epsilon.
func CompareBalances(
	transactionID string,
	serviceType string,
	legacy entities.AccountSnapshot,
	modern entities.AccountSnapshot,
	epsilon float64,
) entities.ReconciliationResult {
	if epsilon <= 0 {
		epsilon = entities.DefaultBalanceEpsilon
	}
	delta := math.Abs(legacy.Balance - modern.Balance)
	return entities.ReconciliationResult{
		TransactionID: transactionID,
		AccountNumber: legacy.AccountNumber,
		ServiceType:   serviceType,
		LegacyBalance: legacy.Balance,
		ModernBalance: modern.Balance,
		Delta:         delta,
		Matched:       delta < epsilon,
	}
}
