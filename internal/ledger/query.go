package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

// Query methods are pure reads over the current snapshot. Nothing is
// cached here: totals are recomputed per call, which is cheap at the
// scale of a single user's local dataset.

// Transaction returns one transaction by id.
func (l *Ledger) Transaction(id string) (core.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.transactions[id]
	return t, ok
}

// Account returns one account by id.
func (l *Ledger) Account(id string) (core.Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.accounts[id]
	return a, ok
}

// Category returns one category by id.
func (l *Ledger) Category(id string) (core.Category, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.categories[id]
	return c, ok
}

// Transactions lists all transactions, newest date first. Ordering in the
// ledger itself carries no meaning; this is the display order.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.Transaction, 0, len(l.transactions))
	for _, t := range l.transactions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RecentTransactions returns the newest transactions up to limit.
func (l *Ledger) RecentTransactions(limit int) []core.Transaction {
	all := l.Transactions()
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Accounts lists all accounts sorted by name.
func (l *Ledger) Accounts() []core.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Categories lists all categories sorted by name.
func (l *Ledger) Categories() []core.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.Category, 0, len(l.categories))
	for _, c := range l.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// TotalBalance is the sum of all account balances. By construction of the
// mutation operations it always equals each account's initial balance
// plus the signed sum of its transactions.
func (l *Ledger) TotalBalance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, a := range l.accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// TotalIncome sums the amounts of all income transactions.
func (l *Ledger) TotalIncome() decimal.Decimal {
	return l.totalByType(core.Income)
}

// TotalExpense sums the amounts of all expense transactions.
func (l *Ledger) TotalExpense() decimal.Decimal {
	return l.totalByType(core.Expense)
}

func (l *Ledger) totalByType(tt core.TransactionType) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, t := range l.transactions {
		if t.Type == tt {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CategoryTotals groups transaction amounts of the given type by
// category, largest total first.
func (l *Ledger) CategoryTotals(tt core.TransactionType) []core.CategoryTotal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	byCategory := make(map[string]decimal.Decimal)
	for _, t := range l.transactions {
		if t.Type != tt {
			continue
		}
		byCategory[t.CategoryID] = byCategory[t.CategoryID].Add(t.Amount)
	}

	out := make([]core.CategoryTotal, 0, len(byCategory))
	for id, total := range byCategory {
		ct := core.CategoryTotal{CategoryID: id, Total: total}
		if cat, ok := l.categories[id]; ok {
			ct.Name = cat.Name
		}
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// MonthlyOverview aggregates income, expense and net per calendar month
// for the last n months, oldest first, ending with the current month.
func (l *Ledger) MonthlyOverview(months int) []core.MonthSummary {
	return l.monthlyOverviewEnding(core.Today(), months)
}

func (l *Ledger) monthlyOverviewEnding(end core.Date, months int) []core.MonthSummary {
	if months <= 0 {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	type yearMonth struct{ year, month int }
	summaries := make(map[yearMonth]*core.MonthSummary, months)
	order := make([]yearMonth, 0, months)

	first := time.Date(end.Year(), time.Month(end.Month()), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		ym := yearMonth{m.Year(), int(m.Month())}
		summaries[ym] = &core.MonthSummary{Year: ym.year, Month: ym.month}
		order = append(order, ym)
	}

	for _, t := range l.transactions {
		ym := yearMonth{t.Date.Year(), t.Date.Month()}
		s, ok := summaries[ym]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}

	out := make([]core.MonthSummary, 0, months)
	for _, ym := range order {
		s := summaries[ym]
		s.Net = s.Income.Sub(s.Expense)
		out = append(out, *s)
	}
	return out
}
