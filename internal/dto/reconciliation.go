package dto

import (
	"time"

	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PassResultResponse reports one executed matching pass.
type PassResultResponse struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy,omitempty"`
	Applied  int    `json:"applied"`
	Errors   int    `json:"errors"`
}

// ReconciliationSummaryResponse is the outcome of a reconciliation run or
// the current standing when no run was executed.
type ReconciliationSummaryResponse struct {
	Total          int                  `json:"total"`
	Matched        int                  `json:"matched"`
	Cash           int                  `json:"cash"`
	Refund         int                  `json:"refund"`
	Unresolved     int                  `json:"unresolved"`
	HandledPercent float64              `json:"handledPercent"`
	PerStrategy    map[string]int       `json:"perStrategy,omitempty"`
	Passes         []PassResultResponse `json:"passes,omitempty"`
}

// ToReconciliationSummaryResponse maps the domain summary into the API shape.
func ToReconciliationSummaryResponse(s *domain.ReconciliationSummary) ReconciliationSummaryResponse {
	resp := ReconciliationSummaryResponse{
		Total:          s.Total,
		Matched:        s.Matched,
		Cash:           s.Cash,
		Refund:         s.Refund,
		Unresolved:     s.Unresolved,
		HandledPercent: s.Percentage,
	}
	if len(s.PerStrategy) > 0 {
		resp.PerStrategy = make(map[string]int, len(s.PerStrategy))
		for strategy, n := range s.PerStrategy {
			resp.PerStrategy[string(strategy)] = n
		}
	}
	for _, p := range s.Passes {
		resp.Passes = append(resp.Passes, PassResultResponse{
			Name:     p.Name,
			Strategy: string(p.Strategy),
			Applied:  p.Applied,
			Errors:   p.Errors,
		})
	}
	return resp
}

// UnmatchedPaymentResponse is one payment still awaiting reconciliation.
type UnmatchedPaymentResponse struct {
	PaymentID     int64           `json:"paymentID"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	AccountNumber *string         `json:"accountNumber,omitempty"`
	ClientID      *int64          `json:"clientID,omitempty"`
	ReserveNumber *string         `json:"reserveNumber,omitempty"`
	Notes         string          `json:"notes"`
}

// ToUnmatchedPaymentResponses maps domain payments into the API shape.
func ToUnmatchedPaymentResponses(payments []domain.Payment) []UnmatchedPaymentResponse {
	out := make([]UnmatchedPaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = UnmatchedPaymentResponse{
			PaymentID:     p.PaymentID,
			PaymentDate:   p.PaymentDate,
			Amount:        p.Amount,
			PaymentMethod: p.PaymentMethod,
			AccountNumber: p.AccountNumber,
			ClientID:      p.ClientID,
			ReserveNumber: p.ReserveNumber,
			Notes:         p.Notes,
		}
	}
	return out
}
