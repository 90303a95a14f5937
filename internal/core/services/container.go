package services

import (
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	portssvc "github.com/prairielimo/lms_backend/internal/core/ports/services"
	"github.com/prairielimo/lms_backend/internal/platform/config"
)

// NewServiceContainer wires every service against the repository provider.
func NewServiceContainer(repos portsrepo.RepositoryProvider, cfg *config.Config) *portssvc.ServiceContainer {
	matcher := NewMatcherService(repos.CharterRepo)

	return &portssvc.ServiceContainer{
		Posting:        NewPostingService(repos.LedgerRepo, cfg.Currency, cfg.GSTRate),
		Ledger:         NewLedgerService(repos.LedgerRepo),
		Matcher:        matcher,
		Reconciliation: NewReconciliationService(repos.PaymentRepo, matcher, cfg.Matching),
	}
}
