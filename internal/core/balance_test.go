package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBalanceDelta(t *testing.T) {
	amount := decimal.RequireFromString("120.50")

	tests := []struct {
		name string
		tt   TransactionType
		dir  Direction
		want string
	}{
		{"apply income adds", Income, Apply, "120.5"},
		{"apply expense subtracts", Expense, Apply, "-120.5"},
		{"revert income subtracts", Income, Revert, "-120.5"},
		{"revert expense adds", Expense, Revert, "120.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BalanceDelta(tc.tt, amount, tc.dir)
			if got.String() != tc.want {
				t.Fatalf("BalanceDelta(%s, %s) = %s, want %s", tc.tt, amount, got, tc.want)
			}
		})
	}
}

func TestBalanceDeltaApplyRevertCancel(t *testing.T) {
	amount := decimal.RequireFromString("33.33")
	for _, tt := range []TransactionType{Income, Expense} {
		sum := BalanceDelta(tt, amount, Apply).Add(BalanceDelta(tt, amount, Revert))
		if !sum.IsZero() {
			t.Fatalf("apply+revert for %s = %s, want 0", tt, sum)
		}
	}
}
