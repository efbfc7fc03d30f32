// Package seed populates an empty ledger with demo data: a fixed set of
// sample categories and accounts plus a batch of randomized transactions
// over the last 30 days. All writes go through the engine so
// account balances stay consistent with the generated history.
package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

const transactionCount = 15

type sampleCategory struct {
	name string
	typ  core.TransactionType
}

type sampleAccount struct {
	name    string
	typ     core.AccountType
	balance int64
}

var sampleCategories = []sampleCategory{
	{"Salary", core.Income},
	{"Freelancing", core.Income},
	{"Investments", core.Income},
	{"Rent", core.Expense},
	{"Groceries", core.Expense},
	{"Utilities", core.Expense},
	{"Entertainment", core.Expense},
	{"Eating Out", core.Expense},
	{"Transportation", core.Expense},
}

var sampleAccounts = []sampleAccount{
	{"Cash", core.Cash, 1000},
	{"Checking Account", core.BankAccount, 5000},
	{"Savings Account", core.BankAccount, 10000},
}

// Run seeds the ledger. It refuses to touch a ledger that already holds
// data so a second run cannot duplicate the demo set.
func Run(ctx context.Context, l *ledger.Ledger) error {
	if !l.Empty() {
		return fmt.Errorf("ledger already contains data, refusing to seed")
	}

	categories := make(map[core.TransactionType][]core.Category)
	for _, sc := range sampleCategories {
		cat, err := l.AddCategory(ctx, sc.name, sc.typ)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", sc.name, err)
		}
		categories[sc.typ] = append(categories[sc.typ], cat)
	}

	accounts := make([]core.Account, 0, len(sampleAccounts))
	for _, sa := range sampleAccounts {
		acc, err := l.AddAccount(ctx, sa.name, sa.typ, decimal.NewFromInt(sa.balance))
		if err != nil {
			return fmt.Errorf("seed account %q: %w", sa.name, err)
		}
		accounts = append(accounts, acc)
	}

	for i := 0; i < transactionCount; i++ {
		in := randomTransaction(categories, accounts)
		if _, err := l.AddTransaction(ctx, in); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
	}

	return l.Flush(ctx)
}

func randomTransaction(categories map[core.TransactionType][]core.Category, accounts []core.Account) ledger.TransactionInput {
	tt := core.Expense
	if rand.Float64() > 0.4 {
		tt = core.Income
	}

	pool := categories[tt]
	cat := pool[rand.Intn(len(pool))]
	acc := accounts[rand.Intn(len(accounts))]

	// Incomes run larger than expenses so the demo balances trend up.
	var amount decimal.Decimal
	var verb string
	if tt == core.Income {
		amount = decimal.NewFromInt(int64(rand.Intn(1000) + 500))
		verb = "Payment for"
	} else {
		amount = decimal.NewFromInt(int64(rand.Intn(300) + 20))
		verb = "Payment to"
	}

	day := core.Today().AddDate(0, 0, -rand.Intn(30))
	description := fmt.Sprintf("%s %s (%s)", verb, cat.Name, gofakeit.Company())

	return ledger.TransactionInput{
		Type:        tt,
		Amount:      amount,
		Date:        core.Date{Time: day},
		CategoryID:  cat.ID,
		AccountID:   acc.ID,
		Description: description,
	}
}
