package core

import "github.com/shopspring/decimal"

// Snapshot is a full copy of the ledger's three collections, the unit of
// durable persistence. Collections are stored by name in the snapshot
// store, each as a serialized array.
type Snapshot struct {
	Transactions []Transaction
	Accounts     []Account
	Categories   []Category
}

// Collection names used as snapshot-store keys.
const (
	CollectionTransactions = "transactions"
	CollectionAccounts     = "accounts"
	CollectionCategories   = "categories"
)

// CategoryTotal is an amount aggregated over one category.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
}

// MonthSummary aggregates one calendar month for the reports view.
type MonthSummary struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"` // 1-12
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}
