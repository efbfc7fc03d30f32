package ledger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

// TransactionInput carries the caller-supplied fields for a new
// transaction. The engine allocates the identifier.
type TransactionInput struct {
	Type        core.TransactionType
	Amount      decimal.Decimal
	Date        core.Date
	CategoryID  string
	AccountID   string
	Description string
}

// TransactionPatch is a partial field set for an update. Nil fields keep
// their current value.
type TransactionPatch struct {
	Type        *core.TransactionType
	Amount      *decimal.Decimal
	Date        *core.Date
	CategoryID  *string
	AccountID   *string
	Description *string
}

// AddTransaction validates the input, inserts the transaction and applies
// its balance delta to the named account. References are checked eagerly:
// unknown account or category ids are rejected, they never enter the
// ledger as dangling foreign keys.
func (l *Ledger) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Amount:      in.Amount,
		Date:        in.Date,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
		Description: in.Description,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkReferencesLocked(tx); err != nil {
		return core.Transaction{}, err
	}

	acc := l.accounts[tx.AccountID]
	acc.Balance = acc.Balance.Add(core.BalanceDelta(tx.Type, tx.Amount, core.Apply))
	l.accounts[acc.ID] = acc
	l.transactions[tx.ID] = tx
	l.commitLocked()

	slog.InfoContext(ctx, "Transaction added",
		"transaction_id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
		"account_id", tx.AccountID,
		"category_id", tx.CategoryID)

	l.publish(ctx, OpCreated, tx.ID)
	return tx, nil
}

// UpdateTransaction merges the patch into the stored transaction. When
// amount, type or account change, the old effect is reverted against the
// old account and the new effect applied against the new one. Both
// balance adjustments and the record update commit under one lock hold:
// callers never observe a partially adjusted state.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, ok := l.transactions[id]
	if !ok {
		return core.Transaction{}, &core.NotFoundError{Kind: "transaction", ID: id}
	}

	next := old
	if patch.Type != nil {
		next.Type = *patch.Type
	}
	if patch.Amount != nil {
		next.Amount = *patch.Amount
	}
	if patch.Date != nil {
		next.Date = *patch.Date
	}
	if patch.CategoryID != nil {
		next.CategoryID = *patch.CategoryID
	}
	if patch.AccountID != nil {
		next.AccountID = *patch.AccountID
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}

	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := l.checkReferencesLocked(next); err != nil {
		return core.Transaction{}, err
	}

	if !old.Amount.Equal(next.Amount) || old.Type != next.Type || old.AccountID != next.AccountID {
		from := l.accounts[old.AccountID]
		from.Balance = from.Balance.Add(core.BalanceDelta(old.Type, old.Amount, core.Revert))
		l.accounts[from.ID] = from

		to := l.accounts[next.AccountID]
		to.Balance = to.Balance.Add(core.BalanceDelta(next.Type, next.Amount, core.Apply))
		l.accounts[to.ID] = to
	}

	l.transactions[id] = next
	l.commitLocked()

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", id,
		"type", next.Type,
		"amount", next.Amount.String(),
		"account_id", next.AccountID)

	l.publish(ctx, OpUpdated, id)
	return next, nil
}

// DeleteTransaction reverts the transaction's balance delta on its
// account and removes it from the ledger.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := l.transactions[id]
	if !ok {
		return &core.NotFoundError{Kind: "transaction", ID: id}
	}

	acc := l.accounts[tx.AccountID]
	acc.Balance = acc.Balance.Add(core.BalanceDelta(tx.Type, tx.Amount, core.Revert))
	l.accounts[acc.ID] = acc
	delete(l.transactions, id)
	l.commitLocked()

	slog.InfoContext(ctx, "Transaction deleted",
		"transaction_id", id,
		"account_id", tx.AccountID,
		"amount", tx.Amount.String())

	l.publish(ctx, OpDeleted, id)
	return nil
}

// checkReferencesLocked enforces write-time referential integrity and the
// category/transaction type consistency invariant. Callers hold l.mu.
func (l *Ledger) checkReferencesLocked(tx core.Transaction) error {
	if _, ok := l.accounts[tx.AccountID]; !ok {
		return &core.ReferenceError{Kind: "account", ID: tx.AccountID}
	}
	cat, ok := l.categories[tx.CategoryID]
	if !ok {
		return &core.ReferenceError{Kind: "category", ID: tx.CategoryID}
	}
	if cat.Type != tx.Type {
		return &core.ValidationError{Field: "type", Reason: "does not match the category's type"}
	}
	return nil
}
