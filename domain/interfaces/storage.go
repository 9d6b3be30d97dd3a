package interfaces

import "bank_automation/domain/entities"

// BalanceStore persists the last-known account balances across restarts.
type BalanceStore interface {
	// Save persists the balance snapshot
	Save(balances map[string]entities.AccountBalance) error

	// Load returns the persisted snapshot, empty when none exists
	Load() (map[string]entities.AccountBalance, error)
}
