package interfaces

import (
	"context"

	"bank_automation/domain/entities"

	"github.com/shopspring/decimal"
)

// BalanceFeed fetches the ground-truth balance of a virtual account from its
// external data source.
type BalanceFeed interface {
	Fetch(ctx context.Context, account entities.VirtualAccount) (decimal.Decimal, error)
}

// PriceFeed looks up the rate that converts one unit of the given currency
// into the app's base currency.
type PriceFeed interface {
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}
