package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

func sampleSnapshot() core.Snapshot {
	return core.Snapshot{
		Transactions: []core.Transaction{
			{
				ID:          "t1",
				Type:        core.Income,
				Amount:      decimal.RequireFromString("200.00"),
				Date:        core.NewDate(2025, 5, 12),
				CategoryID:  "c1",
				AccountID:   "a1",
				Description: "salary",
			},
		},
		Accounts: []core.Account{
			{ID: "a1", Name: "Checking", Type: core.BankAccount, Balance: decimal.NewFromInt(1200)},
		},
		Categories: []core.Category{
			{ID: "c1", Name: "Salary", Type: core.Income},
		},
	}
}

func assertSnapshotEqual(t *testing.T, got, want core.Snapshot) {
	t.Helper()
	if len(got.Transactions) != len(want.Transactions) ||
		len(got.Accounts) != len(want.Accounts) ||
		len(got.Categories) != len(want.Categories) {
		t.Fatalf("snapshot sizes mismatch: got %d/%d/%d want %d/%d/%d",
			len(got.Transactions), len(got.Accounts), len(got.Categories),
			len(want.Transactions), len(want.Accounts), len(want.Categories))
	}
	if len(want.Transactions) > 0 {
		g, w := got.Transactions[0], want.Transactions[0]
		if g.ID != w.ID || g.Type != w.Type || !g.Amount.Equal(w.Amount) ||
			g.Date.String() != w.Date.String() || g.AccountID != w.AccountID {
			t.Fatalf("transaction mismatch: got %+v want %+v", g, w)
		}
	}
	if len(want.Accounts) > 0 {
		g, w := got.Accounts[0], want.Accounts[0]
		if g.ID != w.ID || g.Name != w.Name || !g.Balance.Equal(w.Balance) {
			t.Fatalf("account mismatch: got %+v want %+v", g, w)
		}
	}
}

func TestMemorySaveLoad(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty.Transactions) != 0 {
		t.Fatalf("expected empty snapshot, got %d transactions", len(empty.Transactions))
	}

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSnapshotEqual(t, got, want)

	if store.Saves() != 1 {
		t.Fatalf("saves = %d, want 1", store.Saves())
	}
}

func TestSQLiteSaveLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saldo.db")
	store, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty.Accounts) != 0 {
		t.Fatalf("expected empty snapshot, got %d accounts", len(empty.Accounts))
	}

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Save again to exercise the overwrite path.
	want.Accounts[0].Balance = decimal.NewFromInt(999)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSnapshotEqual(t, got, want)
}

func TestSQLiteReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saldo.db")
	ctx := context.Background()

	store, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	assertSnapshotEqual(t, got, want)
}

func TestPostgresSaveLoad(t *testing.T) {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL not set")
	}

	ctx := context.Background()
	store, err := NewPostgres(ctx, url)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	defer store.Close()

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSnapshotEqual(t, got, want)
}
