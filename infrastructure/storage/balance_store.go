package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"bank_automation/domain/entities"
	"bank_automation/domain/interfaces"
)

const (
	stateDirName = ".bank_automation"
	balancesFile = "balances.json"
)

type balanceStore struct {
	path string
}

// NewBalanceStore creates a JSON-file store under the user's home directory.
func NewBalanceStore() interfaces.BalanceStore {
	homeDir, _ := os.UserHomeDir()
	stateDir := filepath.Join(homeDir, stateDirName)
	os.MkdirAll(stateDir, 0755)

	return &balanceStore{
		path: filepath.Join(stateDir, balancesFile),
	}
}

// NewBalanceStoreAt creates a store at an explicit path, used by tests.
func NewBalanceStoreAt(path string) interfaces.BalanceStore {
	return &balanceStore{path: path}
}

// Save persists the balance snapshot.
func (s *balanceStore) Save(balances map[string]entities.AccountBalance) error {
	data, err := json.Marshal(balances)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Load returns the persisted snapshot, empty when none exists yet.
func (s *balanceStore) Load() (map[string]entities.AccountBalance, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]entities.AccountBalance), nil
		}
		return nil, err
	}

	var balances map[string]entities.AccountBalance
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}
