package repositories

// RepositoryProvider groups the concrete repositories handed to the service
// container at startup.
type RepositoryProvider struct {
	LedgerRepo  LedgerRepositoryFacade
	PaymentRepo PaymentRepositoryWithTx
	CharterRepo CharterReader
}
