package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is the last balance read from the app for one account.
type AccountBalance struct {
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VirtualAccount is an account whose ground-truth balance lives outside the
// bank: a JSON endpoint plus the key path to the balance value inside the
// response. When ForeignCurrency is set the fetched value is converted to the
// app's currency via the price feed before reconciling.
type VirtualAccount struct {
	Name            string   `json:"name"`
	DataURL         string   `json:"data_url"`
	BalanceKeyPath  []string `json:"json_balance_key_path"`
	ForeignCurrency string   `json:"foreign_currency"`
}
