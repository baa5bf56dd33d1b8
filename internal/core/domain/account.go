package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the known account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// Account is a chart-of-accounts entry. The ledger only reads accounts.
type Account struct {
	AccountID   string      `json:"accountID"`
	Name        string      `json:"name"`
	AccountType AccountType `json:"accountType"`
	IsActive    bool        `json:"isActive"`
	AuditFields
}

// NormalSide returns the side on which the account's balance grows.
// ASSET and EXPENSE accounts are debit-normal, everything else is credit-normal.
func (a Account) NormalSide() TransactionType {
	return NormalSideOf(a.AccountType)
}

// NormalSideOf returns the normal balance side for an account type.
func NormalSideOf(t AccountType) TransactionType {
	switch t {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}
