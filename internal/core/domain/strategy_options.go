package domain

import "github.com/shopspring/decimal"

// StrategyOptions tunes one matching pass. The reconciliation driver widens
// these across passes (e.g. 90 then 120 day windows, $5 then $10 tolerance).
type StrategyOptions struct {
	DateWindowDays   int             // Window around the payment date
	AmountTolerance  decimal.Decimal // Max |payment.amount - charter.rate| for fuzzy matches
	AccountPrefixLen int             // When > 0, account numbers match on this prefix length
}
