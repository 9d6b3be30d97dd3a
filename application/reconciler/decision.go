package reconciler

import (
	"bank_automation/domain/entities"

	"github.com/shopspring/decimal"
)

// Decide compares the balance observed in the app against the external
// ground truth and classifies the correction. Pure: no device access, no
// side effects, identical inputs yield identical results.
//
// The delta is target minus observed, rounded to two fraction digits. A
// delta inside the dead-band threshold needs no action; outside it the sign
// selects gain or loss.
func Decide(observed, target, threshold decimal.Decimal) entities.ReconciliationResult {
	delta := target.Sub(observed).Round(2)

	result := entities.ReconciliationResult{
		Observed: observed,
		Target:   target,
		Delta:    delta,
	}

	switch {
	case delta.Abs().Cmp(threshold) <= 0:
		result.WithinThreshold = true
		result.Action = entities.ActionNone
	case delta.Sign() > 0:
		result.Action = entities.ActionRecordGain
	default:
		result.Action = entities.ActionRecordLoss
	}

	return result
}
