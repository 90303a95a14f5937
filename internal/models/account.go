package models

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// Account maps a chart_of_accounts row.
type Account struct {
	AccountCode   string      `json:"accountCode"`
	AccountName   string      `json:"accountName"`
	AccountType   AccountType `json:"accountType"`
	NormalBalance string      `json:"normalBalance"` // DEBIT or CREDIT
}
