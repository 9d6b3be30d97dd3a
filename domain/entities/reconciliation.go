package entities

import "github.com/shopspring/decimal"

// ReconcileAction is the correction decided for one account.
type ReconcileAction string

const (
	ActionNone       ReconcileAction = "none"
	ActionRecordGain ReconcileAction = "record_gain"
	ActionRecordLoss ReconcileAction = "record_loss"
)

// ReconciliationResult compares an externally supplied target balance against
// the balance observed in the app. Delta is target minus observed, rounded to
// two fraction digits. Action is none iff |Delta| <= threshold.
type ReconciliationResult struct {
	Observed        decimal.Decimal `json:"observed_balance"`
	Target          decimal.Decimal `json:"target_balance"`
	Delta           decimal.Decimal `json:"delta"`
	WithinThreshold bool            `json:"within_threshold"`
	Action          ReconcileAction `json:"action"`
}
