package domain

import "time"

// MatchStrategy names one heuristic for linking a payment to a charter.
type MatchStrategy string

const (
	StrategyExactReserve       MatchStrategy = "exact_reserve"
	StrategyExtractedReference MatchStrategy = "extracted_reference"
	StrategyAccountWindow      MatchStrategy = "account_date_window"
	StrategyAmountFuzzy        MatchStrategy = "amount_date_fuzzy"
	StrategyBalanceDue         MatchStrategy = "balance_due"
	StrategyMultiCharter       MatchStrategy = "multi_charter"
	StrategyRegularCustomer    MatchStrategy = "regular_customer"
)

// MatchConfidence grades how much a candidate can be trusted. Exact beats
// high beats medium beats low; the driver applies the first confident hit.
type MatchConfidence int

const (
	ConfidenceLow MatchConfidence = iota
	ConfidenceMedium
	ConfidenceHigh
	ConfidenceExact
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceExact:
		return "exact"
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	}
	return "low"
}

// MatchCandidate is one plausible charter for an unmatched payment, produced
// by the candidate generator without mutating anything.
type MatchCandidate struct {
	CharterID     int64           `json:"charterID"`
	ReserveNumber string          `json:"reserveNumber"`
	CharterDate   time.Time       `json:"charterDate"`
	Strategy      MatchStrategy   `json:"strategy"`
	Confidence    MatchConfidence `json:"confidence"`
	Note          string          `json:"note,omitempty"` // e.g. bundle annotation for multi-charter hits
}
