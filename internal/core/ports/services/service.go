package services

// ServiceContainer holds all the services needed by the handlers.
type ServiceContainer struct {
	Posting        PostingSvcFacade
	Ledger         LedgerSvcFacade
	Matcher        MatchCandidateSvc
	Reconciliation ReconciliationSvcFacade
}
