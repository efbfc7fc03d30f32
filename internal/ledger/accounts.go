package ledger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

// AccountPatch is a partial field set for an account update. The balance
// field doubles as the initial balance and may only change while no
// transaction references the account.
type AccountPatch struct {
	Name    *string
	Type    *core.AccountType
	Balance *decimal.Decimal
}

// CategoryPatch is a partial field set for a category update. The type is
// fixed at creation and cannot be patched.
type CategoryPatch struct {
	Name *string
	Type *core.TransactionType
}

// AddAccount creates an account with an explicit initial balance.
func (l *Ledger) AddAccount(ctx context.Context, name string, at core.AccountType, initial decimal.Decimal) (core.Account, error) {
	acc := core.Account{
		ID:      uuid.NewString(),
		Name:    name,
		Type:    at,
		Balance: initial,
	}
	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[acc.ID] = acc
	l.commitLocked()

	slog.InfoContext(ctx, "Account added",
		"account_id", acc.ID, "name", acc.Name, "type", acc.Type,
		"balance", acc.Balance.String())
	return acc, nil
}

// UpdateAccount patches name and type freely. A balance change rewrites
// the initial balance and is only permitted while the account has no
// transactions; once any exist the balance moves only through the engine.
func (l *Ledger) UpdateAccount(ctx context.Context, id string, patch AccountPatch) (core.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[id]
	if !ok {
		return core.Account{}, &core.NotFoundError{Kind: "account", ID: id}
	}

	if patch.Balance != nil && !patch.Balance.Equal(acc.Balance) {
		if n := l.accountRefsLocked(id); n > 0 {
			return core.Account{}, &core.ValidationError{
				Field:  "balance",
				Reason: "cannot be changed while transactions reference the account",
			}
		}
		acc.Balance = *patch.Balance
	}
	if patch.Name != nil {
		acc.Name = *patch.Name
	}
	if patch.Type != nil {
		acc.Type = *patch.Type
	}

	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}

	l.accounts[id] = acc
	l.commitLocked()

	slog.InfoContext(ctx, "Account updated", "account_id", id, "name", acc.Name)
	return acc, nil
}

// DeleteAccount removes the account unless any transaction references it.
// The block is hard: nothing is deleted on failure.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[id]; !ok {
		return &core.NotFoundError{Kind: "account", ID: id}
	}
	if n := l.accountRefsLocked(id); n > 0 {
		return &core.ReferentialIntegrityError{Kind: "account", ID: id, Refs: n}
	}

	delete(l.accounts, id)
	l.commitLocked()

	slog.InfoContext(ctx, "Account deleted", "account_id", id)
	return nil
}

// AddCategory creates a category whose type is fixed for its lifetime.
func (l *Ledger) AddCategory(ctx context.Context, name string, tt core.TransactionType) (core.Category, error) {
	cat := core.Category{
		ID:   uuid.NewString(),
		Name: name,
		Type: tt,
	}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.categories[cat.ID] = cat
	l.commitLocked()

	slog.InfoContext(ctx, "Category added",
		"category_id", cat.ID, "name", cat.Name, "type", cat.Type)
	return cat, nil
}

// UpdateCategory renames a category. Type changes are rejected: existing
// transactions of the original type would silently violate the
// category/transaction consistency invariant.
func (l *Ledger) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (core.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cat, ok := l.categories[id]
	if !ok {
		return core.Category{}, &core.NotFoundError{Kind: "category", ID: id}
	}

	if patch.Type != nil && *patch.Type != cat.Type {
		return core.Category{}, &core.ValidationError{Field: "type", Reason: "is fixed at creation"}
	}
	if patch.Name != nil {
		cat.Name = *patch.Name
	}

	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}

	l.categories[id] = cat
	l.commitLocked()

	slog.InfoContext(ctx, "Category updated", "category_id", id, "name", cat.Name)
	return cat, nil
}

// DeleteCategory removes the category unless any transaction references
// it. Same hard block as DeleteAccount.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.categories[id]; !ok {
		return &core.NotFoundError{Kind: "category", ID: id}
	}
	if n := l.categoryRefsLocked(id); n > 0 {
		return &core.ReferentialIntegrityError{Kind: "category", ID: id, Refs: n}
	}

	delete(l.categories, id)
	l.commitLocked()

	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	return nil
}

func (l *Ledger) accountRefsLocked(id string) int {
	n := 0
	for _, t := range l.transactions {
		if t.AccountID == id {
			n++
		}
	}
	return n
}

func (l *Ledger) categoryRefsLocked(id string) int {
	n := 0
	for _, t := range l.transactions {
		if t.CategoryID == id {
			n++
		}
	}
	return n
}
