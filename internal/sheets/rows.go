package sheets

import (
	"sort"

	"saldo/internal/core"
)

// SnapshotRows converts a snapshot into spreadsheet rows, header first,
// transactions newest date first. Category and account IDs are resolved
// to names; a dangling reference keeps the raw ID so nothing is lost.
func SnapshotRows(snap core.Snapshot) [][]any {
	categories := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		categories[c.ID] = c.Name
	}
	accounts := make(map[string]string, len(snap.Accounts))
	for _, a := range snap.Accounts {
		accounts[a.ID] = a.Name
	}

	txs := make([]core.Transaction, len(snap.Transactions))
	copy(txs, snap.Transactions)
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].ID < txs[j].ID
	})

	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, []any{"Date", "Type", "Description", "Amount", "Category", "Account"})

	for _, t := range txs {
		category := categories[t.CategoryID]
		if category == "" {
			category = t.CategoryID
		}
		account := accounts[t.AccountID]
		if account == "" {
			account = t.AccountID
		}

		rows = append(rows, []any{
			t.Date.String(),
			string(t.Type),
			t.Description,
			t.Amount.String(),
			category,
			account,
		})
	}

	return rows
}
