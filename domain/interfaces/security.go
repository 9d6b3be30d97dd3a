package interfaces

import "github.com/shopspring/decimal"

// CorrectionGuard decides whether a correcting transaction may be injected.
// It is the last check before the bot writes into the banking app.
type CorrectionGuard interface {
	// AllowCorrection returns a non-nil error when the signed amount must
	// not be recorded
	AllowCorrection(account string, amount decimal.Decimal) error
}
