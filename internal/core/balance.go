package core

import "github.com/shopspring/decimal"

// Direction selects whether a transaction's effect on an account balance
// is being applied or reverted.
type Direction int

const (
	Apply Direction = iota
	Revert
)

// BalanceDelta returns the signed adjustment a transaction of the given
// type and amount makes to its account's balance: +amount for
// apply-income or revert-expense, -amount for apply-expense or
// revert-income. Pure and total; amounts are validated upstream.
func BalanceDelta(tt TransactionType, amount decimal.Decimal, d Direction) decimal.Decimal {
	sign := decimal.NewFromInt(1)
	if tt == Expense {
		sign = sign.Neg()
	}
	if d == Revert {
		sign = sign.Neg()
	}
	return amount.Mul(sign)
}
