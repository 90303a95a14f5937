package domain

// PassResult records the effect of one reconciliation pass.
type PassResult struct {
	Name     string        `json:"name"`
	Strategy MatchStrategy `json:"strategy,omitempty"`
	Applied  int           `json:"applied"` // Payments fixed by this pass
	Errors   int           `json:"errors"`  // Per-row failures skipped
}

// ReconciliationSummary is the structured result external tooling depends on:
// counts per terminal state plus the running properly-handled percentage.
type ReconciliationSummary struct {
	Total       int                   `json:"total"`
	Matched     int                   `json:"matched"`
	Cash        int                   `json:"cash"`
	Refund      int                   `json:"refund"`
	Unresolved  int                   `json:"unresolved"`
	Percentage  float64               `json:"percentage"` // (matched+cash+refund)/total * 100
	PerStrategy map[MatchStrategy]int `json:"perStrategy"`
	Passes      []PassResult          `json:"passes"`
}

// HandledPercent computes the properly-handled percentage for the given
// counts. A payment is properly handled when it is matched to a charter or
// explicitly classified as cash or refund.
func HandledPercent(total, matched, cash, refund int) float64 {
	if total == 0 {
		return 100.0
	}
	return float64(matched+cash+refund) / float64(total) * 100.0
}
