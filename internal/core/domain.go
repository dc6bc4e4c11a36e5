package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  FlowDirection = "income"
	Expense FlowDirection = "expense"

	Fixed    CostKind = "fixed"
	Variable CostKind = "variable"
)

type (
	// FlowDirection tells whether a ledger entry increases or decreases balance.
	FlowDirection string

	// CostKind classifies an expense as contractually fixed or discretionary.
	// It carries no meaning for income entries.
	CostKind string

	// Date is a calendar day pinned to UTC. All date-only comparisons in the
	// application go through Date so month boundaries are unambiguous.
	Date struct {
		time.Time
	}

	// LedgerTransaction is a single concrete ledger entry. Amount is always a
	// non-negative magnitude; Flow carries the sign.
	LedgerTransaction struct {
		ID          string
		UserID      string
		Description string
		Amount      Money
		Flow        FlowDirection
		Cost        CostKind // only set when Flow == Expense
		Category    string
		Date        Date

		// Installment metadata is descriptive only ("3/12" on the dashboard).
		InstallmentIndex int
		InstallmentCount int

		// ObligationID traces a generated transaction back to its source
		// obligation. Empty for manually entered transactions.
		ObligationID string
	}

	// RecurringObligation is a fixed-day-of-month expense definition.
	// Deactivated obligations are kept forever; Active is the logical delete.
	RecurringObligation struct {
		ID            string
		UserID        string
		Description   string
		Amount        Money
		Category      string
		DayOfMonth    int
		Active        bool
		LastGenerated Date // zero value means never materialized
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrUnknownFlow       = errors.New("unknown flow direction")
	ErrUnknownCostKind   = errors.New("unknown cost kind")
	ErrMissingUser       = errors.New("missing user id")
	ErrInvalidDate       = errors.New("invalid date")
)

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DayOfMonth returns the day component (1-31).
func (d Date) DayOfMonth() int {
	return d.Time.Day()
}

func (f FlowDirection) Validate() error {
	switch f {
	case Income, Expense:
		return nil
	}
	return ErrUnknownFlow
}

func (k CostKind) Validate() error {
	switch k {
	case Fixed, Variable:
		return nil
	}
	return ErrUnknownCostKind
}

func (t LedgerTransaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Flow.Validate(); err != nil {
		return err
	}
	if t.Flow == Expense {
		if err := t.Cost.Validate(); err != nil {
			return err
		}
	} else if t.Cost != "" {
		return errors.New("cost kind only applies to expenses")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.InstallmentIndex < 0 || t.InstallmentCount < 0 {
		return errors.New("installment metadata cannot be negative")
	}
	if t.InstallmentCount > 0 && t.InstallmentIndex > t.InstallmentCount {
		return errors.New("installment index exceeds installment count")
	}
	return nil
}

func (o RecurringObligation) Validate() error {
	if strings.TrimSpace(o.UserID) == "" {
		return ErrMissingUser
	}
	if len(strings.TrimSpace(o.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(o.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(o.Category) == "" {
		return ErrEmptyCategory
	}
	if o.DayOfMonth < 1 || o.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	return nil
}
