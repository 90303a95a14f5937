package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// BalanceSide is the side on which an account normally carries its balance.
type BalanceSide string

const (
	DebitSide  BalanceSide = "DEBIT"
	CreditSide BalanceSide = "CREDIT"
)

// Account is a chart-of-accounts entry. Accounts are created by administrative
// setup and are never deleted once a posted line references them.
type Account struct {
	AccountCode   string      `json:"accountCode"` // Stable business key, e.g. "1100"
	AccountName   string      `json:"accountName"`
	AccountType   AccountType `json:"accountType"`
	NormalBalance BalanceSide `json:"normalBalance"`
}
