package security

import (
	"fmt"

	"bank_automation/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LimitGuard is the last check before the bot writes a correcting
// transaction into the banking app: corrections above the configured
// magnitude are refused. A runaway ground-truth feed should never be able to
// inject an arbitrarily large booking.
type LimitGuard struct {
	maxCorrection decimal.Decimal
	logger        *logrus.Logger
}

// NewLimitGuard creates a guard. A non-positive limit disables the check.
func NewLimitGuard(maxCorrection decimal.Decimal, logger *logrus.Logger) *LimitGuard {
	return &LimitGuard{
		maxCorrection: maxCorrection,
		logger:        logger,
	}
}

// AllowCorrection returns an error when the signed amount exceeds the limit.
func (g *LimitGuard) AllowCorrection(account string, amount decimal.Decimal) error {
	if g.maxCorrection.Sign() <= 0 {
		return nil
	}

	if amount.Abs().Cmp(g.maxCorrection) > 0 {
		g.logger.WithFields(logrus.Fields{
			"account": account,
			"amount":  amount.StringFixed(2),
			"limit":   g.maxCorrection.StringFixed(2),
		}).Warn("correction exceeds configured limit")
		return fmt.Errorf("correction of %s for %q exceeds limit %s",
			amount.StringFixed(2), account, g.maxCorrection.StringFixed(2))
	}

	return nil
}

// Ensure LimitGuard implements CorrectionGuard interface
var _ interfaces.CorrectionGuard = (*LimitGuard)(nil)
