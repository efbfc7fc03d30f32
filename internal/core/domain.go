package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Cash        AccountType = "Cash"
	BankAccount AccountType = "BankAccount"
	CreditCard  AccountType = "CreditCard"
	Investment  AccountType = "Investment"
	Loan        AccountType = "Loan"
	Other       AccountType = "Other"
)

type (
	TransactionType string

	AccountType string

	// Date is a calendar date without a time-of-day component.
	// It serializes as "YYYY-MM-DD" on the wire.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Date        Date            `json:"date"`
		CategoryID  string          `json:"categoryId"`
		AccountID   string          `json:"accountId"`
		Description string          `json:"description"`
	}

	Account struct {
		ID      string          `json:"id"`
		Name    string          `json:"name"`
		Type    AccountType     `json:"type"`
		Balance decimal.Decimal `json:"balance"`
	}

	Category struct {
		ID   string          `json:"id"`
		Name string          `json:"name"`
		Type TransactionType `json:"type"`
	}
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Year and Month identify the calendar month the date falls in.
func (d Date) Year() int  { return d.Time.Year() }
func (d Date) Month() int { return int(d.Time.Month()) }

func (tt TransactionType) Valid() bool {
	return tt == Income || tt == Expense
}

func (at AccountType) Valid() bool {
	switch at {
	case Cash, BankAccount, CreditCard, Investment, Loan, Other:
		return true
	default:
		return false
	}
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	if !t.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return &ValidationError{Field: "categoryId", Reason: "is required"}
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return &ValidationError{Field: "accountId", Reason: "is required"}
	}
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if len(t.Description) > 200 {
		return &ValidationError{Field: "description", Reason: "too long (max 200 characters)"}
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if !a.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown account type"}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if !c.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	return nil
}
