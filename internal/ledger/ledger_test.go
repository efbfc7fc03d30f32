package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/storage"
)

type fixture struct {
	ledger  *Ledger
	store   *storage.Memory
	account core.Account
	income  core.Category
	expense core.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemory()
	l := New(store, nil)
	t.Cleanup(func() {
		if err := l.Close(); err != nil {
			t.Errorf("close ledger: %v", err)
		}
	})

	ctx := context.Background()
	acc, err := l.AddAccount(ctx, "Checking", core.BankAccount, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	inc, err := l.AddCategory(ctx, "Salary", core.Income)
	if err != nil {
		t.Fatalf("add income category: %v", err)
	}
	exp, err := l.AddCategory(ctx, "Groceries", core.Expense)
	if err != nil {
		t.Fatalf("add expense category: %v", err)
	}

	return &fixture{ledger: l, store: store, account: acc, income: inc, expense: exp}
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	acc, ok := f.ledger.Account(id)
	if !ok {
		t.Fatalf("account %s vanished", id)
	}
	return acc.Balance
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) addTransaction(t *testing.T, tt core.TransactionType, amt string, catID string) core.Transaction {
	t.Helper()
	tx, err := f.ledger.AddTransaction(context.Background(), TransactionInput{
		Type:        tt,
		Amount:      amount(amt),
		Date:        core.NewDate(2025, 6, 15),
		CategoryID:  catID,
		AccountID:   f.account.ID,
		Description: "test transaction",
	})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	return tx
}

func TestAddTransactionAppliesDelta(t *testing.T) {
	f := newFixture(t)

	f.addTransaction(t, core.Income, "200", f.income.ID)
	if got := f.balance(t, f.account.ID); !got.Equal(amount("1200")) {
		t.Fatalf("balance after income = %s, want 1200", got)
	}

	f.addTransaction(t, core.Expense, "50.25", f.expense.ID)
	if got := f.balance(t, f.account.ID); !got.Equal(amount("1149.75")) {
		t.Fatalf("balance after expense = %s, want 1149.75", got)
	}
}

func TestAddTransactionRejectsUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.AddTransaction(ctx, TransactionInput{
		Type: core.Income, Amount: amount("10"), Date: core.NewDate(2025, 1, 1),
		CategoryID: f.income.ID, AccountID: "nope", Description: "x",
	})
	var refErr *core.ReferenceError
	if !errors.As(err, &refErr) || refErr.Kind != "account" {
		t.Fatalf("expected account ReferenceError, got %v", err)
	}

	_, err = f.ledger.AddTransaction(ctx, TransactionInput{
		Type: core.Income, Amount: amount("10"), Date: core.NewDate(2025, 1, 1),
		CategoryID: "nope", AccountID: f.account.ID, Description: "x",
	})
	if !errors.As(err, &refErr) || refErr.Kind != "category" {
		t.Fatalf("expected category ReferenceError, got %v", err)
	}

	// Rejected writes leave balances untouched.
	if got := f.balance(t, f.account.ID); !got.Equal(amount("1000")) {
		t.Fatalf("balance changed by rejected writes: %s", got)
	}
}

func TestAddTransactionRejectsTypeMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.AddTransaction(context.Background(), TransactionInput{
		Type: core.Expense, Amount: amount("10"), Date: core.NewDate(2025, 1, 1),
		CategoryID: f.income.ID, AccountID: f.account.ID, Description: "x",
	})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeleteTransactionRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := f.balance(t, f.account.ID)
	tx := f.addTransaction(t, core.Expense, "123.45", f.expense.ID)
	if err := f.ledger.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := f.balance(t, f.account.ID); !got.Equal(before) {
		t.Fatalf("add+delete did not restore balance: got %s, want %s", got, before)
	}
	if _, ok := f.ledger.Transaction(tx.ID); ok {
		t.Fatal("transaction still present after delete")
	}
}

func TestDeleteTransactionNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.ledger.DeleteTransaction(context.Background(), "missing")
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateTransactionAmountAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.addTransaction(t, core.Income, "200", f.income.ID)
	newAmount := amount("50")
	if _, err := f.ledger.UpdateTransaction(ctx, tx.ID, TransactionPatch{Amount: &newAmount}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// X=200 -> Y=50 on an income shifts the balance by Y-X = -150.
	if got := f.balance(t, f.account.ID); !got.Equal(amount("1050")) {
		t.Fatalf("balance after amount update = %s, want 1050", got)
	}

	got, ok := f.ledger.Transaction(tx.ID)
	if !ok || !got.Amount.Equal(newAmount) {
		t.Fatalf("stored amount = %v, want 50", got.Amount)
	}
}

func TestUpdateTransactionMovesAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	savings, err := f.ledger.AddAccount(ctx, "Savings", core.BankAccount, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("add account: %v", err)
	}

	tx := f.addTransaction(t, core.Income, "100", f.income.ID)
	if _, err := f.ledger.UpdateTransaction(ctx, tx.ID, TransactionPatch{AccountID: &savings.ID}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := f.balance(t, f.account.ID); !got.Equal(amount("1000")) {
		t.Fatalf("old account balance = %s, want 1000", got)
	}
	if got := f.balance(t, savings.ID); !got.Equal(amount("600")) {
		t.Fatalf("new account balance = %s, want 600", got)
	}
}

func TestUpdateTransactionTypeFlip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.addTransaction(t, core.Income, "100", f.income.ID)

	// Flipping the type requires a category of the matching type too.
	exp := core.Expense
	if _, err := f.ledger.UpdateTransaction(ctx, tx.ID, TransactionPatch{
		Type: &exp, CategoryID: &f.expense.ID,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// 1000 +100 (income applied) -100 (revert) -100 (expense applied).
	if got := f.balance(t, f.account.ID); !got.Equal(amount("900")) {
		t.Fatalf("balance after type flip = %s, want 900", got)
	}
}

func TestUpdateTransactionRejectedLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.addTransaction(t, core.Income, "200", f.income.ID)
	before := f.balance(t, f.account.ID)

	bad := "no-such-account"
	_, err := f.ledger.UpdateTransaction(ctx, tx.ID, TransactionPatch{AccountID: &bad})
	var refErr *core.ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}

	if got := f.balance(t, f.account.ID); !got.Equal(before) {
		t.Fatalf("rejected update changed balance: %s", got)
	}
	got, _ := f.ledger.Transaction(tx.ID)
	if got.AccountID != f.account.ID {
		t.Fatal("rejected update changed the stored transaction")
	}
}

// 1000, +200 income -> 1200, amount to 50 -> 1050, delete -> 1000.
func TestIncomeLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.addTransaction(t, core.Income, "200", f.income.ID)
	if got := f.balance(t, f.account.ID); !got.Equal(amount("1200")) {
		t.Fatalf("after add = %s, want 1200", got)
	}

	fifty := amount("50")
	if _, err := f.ledger.UpdateTransaction(ctx, tx.ID, TransactionPatch{Amount: &fifty}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := f.balance(t, f.account.ID); !got.Equal(amount("1050")) {
		t.Fatalf("after update = %s, want 1050", got)
	}

	if err := f.ledger.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := f.balance(t, f.account.ID); !got.Equal(amount("1000")) {
		t.Fatalf("after delete = %s, want 1000", got)
	}
}

func TestDeleteAccountBlockedByTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.addTransaction(t, core.Expense, "10", f.expense.ID)

	err := f.ledger.DeleteAccount(ctx, f.account.ID)
	var ri *core.ReferentialIntegrityError
	if !errors.As(err, &ri) || ri.Refs != 1 {
		t.Fatalf("expected ReferentialIntegrityError with 1 ref, got %v", err)
	}

	// Both the account and the transaction survive a blocked delete.
	if _, ok := f.ledger.Account(f.account.ID); !ok {
		t.Fatal("account removed despite block")
	}
	if _, ok := f.ledger.Transaction(tx.ID); !ok {
		t.Fatal("transaction removed despite block")
	}
}

// Deleting a referenced category fails; deleting the transaction first,
// then the category, succeeds.
func TestDeleteCategoryAfterTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.addTransaction(t, core.Expense, "10", f.expense.ID)

	err := f.ledger.DeleteCategory(ctx, f.expense.ID)
	var ri *core.ReferentialIntegrityError
	if !errors.As(err, &ri) {
		t.Fatalf("expected ReferentialIntegrityError, got %v", err)
	}

	if err := f.ledger.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := f.ledger.DeleteCategory(ctx, f.expense.ID); err != nil {
		t.Fatalf("delete category after freeing refs: %v", err)
	}
}

func TestAccountBalanceImmutableOnceReferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Before any transactions the initial balance may be corrected.
	fresh := amount("2500")
	if _, err := f.ledger.UpdateAccount(ctx, f.account.ID, AccountPatch{Balance: &fresh}); err != nil {
		t.Fatalf("update initial balance: %v", err)
	}
	if got := f.balance(t, f.account.ID); !got.Equal(fresh) {
		t.Fatalf("initial balance = %s, want 2500", got)
	}

	f.addTransaction(t, core.Income, "100", f.income.ID)

	other := amount("1")
	_, err := f.ledger.UpdateAccount(ctx, f.account.ID, AccountPatch{Balance: &other})
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Field != "balance" {
		t.Fatalf("expected balance ValidationError, got %v", err)
	}

	// Renames stay allowed.
	name := "Main checking"
	if _, err := f.ledger.UpdateAccount(ctx, f.account.ID, AccountPatch{Name: &name}); err != nil {
		t.Fatalf("rename: %v", err)
	}
}

func TestCategoryTypeFixedAtCreation(t *testing.T) {
	f := newFixture(t)

	flip := core.Expense
	_, err := f.ledger.UpdateCategory(context.Background(), f.income.ID, CategoryPatch{Type: &flip})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// Invariant from the balance contract: for every reachable state,
// balance == initial + signed sum of referencing transactions.
func TestBalanceInvariantAcrossMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	initial := amount("1000")

	signedSum := func() decimal.Decimal {
		sum := decimal.Zero
		for _, tx := range f.ledger.Transactions() {
			if tx.AccountID != f.account.ID {
				continue
			}
			sum = sum.Add(core.BalanceDelta(tx.Type, tx.Amount, core.Apply))
		}
		return sum
	}
	check := func(step string) {
		t.Helper()
		want := initial.Add(signedSum())
		if got := f.balance(t, f.account.ID); !got.Equal(want) {
			t.Fatalf("%s: balance %s != initial+sum %s", step, got, want)
		}
	}

	a := f.addTransaction(t, core.Income, "300", f.income.ID)
	check("after income")
	b := f.addTransaction(t, core.Expense, "120.50", f.expense.ID)
	check("after expense")

	seventy := amount("70")
	if _, err := f.ledger.UpdateTransaction(ctx, b.ID, TransactionPatch{Amount: &seventy}); err != nil {
		t.Fatalf("update: %v", err)
	}
	check("after update")

	if err := f.ledger.DeleteTransaction(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	check("after delete")
}

func TestRehydrateRestoresState(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()

	first := New(store, nil)
	acc, err := first.AddAccount(ctx, "Cash", core.Cash, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	cat, err := first.AddCategory(ctx, "Misc", core.Expense)
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, err := first.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Amount: amount("40"), Date: core.NewDate(2025, 3, 3),
		CategoryID: cat.ID, AccountID: acc.ID, Description: "coffee beans",
	}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := New(store, nil)
	defer second.Close()
	if err := second.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	got, ok := second.Account(acc.ID)
	if !ok {
		t.Fatal("account missing after rehydration")
	}
	if !got.Balance.Equal(amount("60")) {
		t.Fatalf("rehydrated balance = %s, want 60", got.Balance)
	}
	if n := len(second.Transactions()); n != 1 {
		t.Fatalf("rehydrated transactions = %d, want 1", n)
	}
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, op, id string) error {
	p.events = append(p.events, op+":"+id)
	return nil
}

func TestTransactionMutationsPublishEvents(t *testing.T) {
	store := storage.NewMemory()
	pub := &recordingPublisher{}
	l := New(store, pub)
	defer l.Close()
	ctx := context.Background()

	acc, _ := l.AddAccount(ctx, "Cash", core.Cash, decimal.Zero)
	cat, _ := l.AddCategory(ctx, "Misc", core.Expense)
	tx, err := l.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Amount: amount("5"), Date: core.NewDate(2025, 1, 2),
		CategoryID: cat.ID, AccountID: acc.ID, Description: "stamps",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{OpCreated + ":" + tx.ID, OpDeleted + ":" + tx.ID}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %v, want %v", pub.events, want)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Fatalf("event[%d] = %s, want %s", i, pub.events[i], want[i])
		}
	}
}

func TestCloseFlushesSnapshot(t *testing.T) {
	store := storage.NewMemory()
	l := New(store, nil)
	ctx := context.Background()

	if _, err := l.AddAccount(ctx, "Cash", core.Cash, decimal.NewFromInt(7)); err != nil {
		t.Fatalf("add account: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Accounts) != 1 {
		t.Fatalf("persisted accounts = %d, want 1", len(snap.Accounts))
	}
}
