package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format every stored record uses.
// Dates carry no timezone.
const DateLayout = "2006-01-02"

// ExpenseRecord is the unit of persisted data. Account and category are
// free text inferred by the model; the store does not constrain them to an
// enum. Amount sign convention: positive = money received, negative =
// money spent.
type ExpenseRecord struct {
	ID       int64   `db:"id" json:"id"`
	Date     string  `db:"date" json:"date"`
	Account  string  `db:"account" json:"account"`
	Amount   float64 `db:"amount" json:"amount"`
	Category string  `db:"category" json:"category"`
}

// Validate checks plausible shape, not semantic correctness: a parseable
// ISO date and non-empty account and category. Rows labeled "Total" are
// statement footers, not expenses.
func (r *ExpenseRecord) Validate() error {
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", r.Date, err)
	}
	if strings.TrimSpace(r.Account) == "" {
		return fmt.Errorf("empty account")
	}
	if strings.EqualFold(strings.TrimSpace(r.Account), "Total") {
		return fmt.Errorf("total row is not an expense")
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("empty category")
	}
	return nil
}
