package sheets

import (
	"testing"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

func TestSnapshotRows(t *testing.T) {
	snap := core.Snapshot{
		Transactions: []core.Transaction{
			{
				ID:          "t1",
				Type:        core.Expense,
				Amount:      decimal.RequireFromString("12.50"),
				Date:        core.NewDate(2025, 3, 1),
				CategoryID:  "c1",
				AccountID:   "a1",
				Description: "groceries run",
			},
			{
				ID:          "t2",
				Type:        core.Income,
				Amount:      decimal.RequireFromString("3000"),
				Date:        core.NewDate(2025, 3, 15),
				CategoryID:  "c2",
				AccountID:   "a1",
				Description: "salary",
			},
		},
		Accounts: []core.Account{
			{ID: "a1", Name: "Checking", Type: core.BankAccount},
		},
		Categories: []core.Category{
			{ID: "c1", Name: "Groceries", Type: core.Expense},
			{ID: "c2", Name: "Salary", Type: core.Income},
		},
	}

	rows := SnapshotRows(snap)

	if len(rows) != 3 {
		t.Fatalf("SnapshotRows() returned %d rows, want 3", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][5] != "Account" {
		t.Errorf("header row = %v", rows[0])
	}

	// Newest date first.
	if rows[1][2] != "salary" {
		t.Errorf("first data row = %v, want the salary transaction", rows[1])
	}
	if rows[1][0] != "2025-03-15" {
		t.Errorf("date cell = %v, want 2025-03-15", rows[1][0])
	}
	if rows[1][4] != "Salary" || rows[1][5] != "Checking" {
		t.Errorf("resolved names = %v / %v", rows[1][4], rows[1][5])
	}
	if rows[2][1] != "expense" || rows[2][3] != "12.5" {
		t.Errorf("expense row = %v", rows[2])
	}
}

func TestSnapshotRowsDanglingReference(t *testing.T) {
	snap := core.Snapshot{
		Transactions: []core.Transaction{
			{
				ID:          "t1",
				Type:        core.Expense,
				Amount:      decimal.NewFromInt(5),
				Date:        core.NewDate(2025, 1, 1),
				CategoryID:  "missing-cat",
				AccountID:   "missing-acc",
				Description: "orphan",
			},
		},
	}

	rows := SnapshotRows(snap)
	if len(rows) != 2 {
		t.Fatalf("SnapshotRows() returned %d rows, want 2", len(rows))
	}
	if rows[1][4] != "missing-cat" || rows[1][5] != "missing-acc" {
		t.Errorf("dangling ids not preserved: %v", rows[1])
	}
}

func TestSnapshotRowsEmpty(t *testing.T) {
	rows := SnapshotRows(core.Snapshot{})
	if len(rows) != 1 {
		t.Fatalf("SnapshotRows() on empty snapshot = %d rows, want header only", len(rows))
	}
}
