package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  CategoryType = "income"
	Expense CategoryType = "expense"
)

const (
	AlertNearLimit AlertKind = "near_limit"
	AlertExceeded  AlertKind = "exceeded"
)

type (
	CategoryType string

	AlertKind string

	Date struct {
		time.Time
	}

	// Period identifies a calendar month and renders as YYYY-MM.
	Period struct {
		Year  int
		Month int
	}

	// DateRange is inclusive on both ends.
	DateRange struct {
		From Date
		To   Date
	}

	Category struct {
		ID    int64
		Owner string
		Name  string
		Type  CategoryType
	}

	Transaction struct {
		ID          int64
		Owner       string
		Category    Category // only Category.ID is required on writes
		Amount      decimal.Decimal
		Date        Date
		Description string
	}

	Budget struct {
		ID        int64
		Owner     string
		Category  Category
		Amount    decimal.Decimal
		Period    Period
		CreatedAt time.Time
	}

	// Alert is computed per request and never stored.
	Alert struct {
		Kind AlertKind
		// Percentage is the share of the budget consumed, e.g. 81.0 or 120.0.
		Percentage decimal.Decimal
		Category   string
		Spent      decimal.Decimal
		Budget     decimal.Decimal
		Message    string
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAmountPrecision     = errors.New("too many decimal places")
	ErrAmountTooLarge      = errors.New("too many digits")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrEmptyName           = errors.New("empty name")
	ErrNameTooLong         = errors.New("name too long")
	ErrDuplicateBudget     = errors.New("duplicate budget")
)

const maxCategoryName = 100

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d Date) Period() Period {
	return Period{Year: d.Year(), Month: int(d.Month())}
}

// ParsePeriod accepts exactly YYYY-MM with a month between 01 and 12.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 7 || s[4] != '-' {
		return Period{}, ErrInvalidPeriod
	}
	for i, r := range s {
		if i == 4 {
			continue
		}
		if r < '0' || r > '9' {
			return Period{}, ErrInvalidPeriod
		}
	}
	var p Period
	if _, err := fmt.Sscanf(s, "%4d-%2d", &p.Year, &p.Month); err != nil {
		return Period{}, ErrInvalidPeriod
	}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Year < 1 || p.Year > 9999 || p.Month < 1 || p.Month > 12 {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Range returns the first and last day of the month.
func (p Period) Range() DateRange {
	first := NewDate(p.Year, p.Month, 1)
	return DateRange{From: first, To: Date{Time: first.AddDate(0, 1, -1)}}
}

func (r DateRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From.Time) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To.Time) {
		return false
	}
	return true
}

func (t CategoryType) Valid() bool {
	return t == Income || t == Expense
}

func (c Category) Validate() error {
	var errs ValidationErrors
	name := strings.TrimSpace(c.Name)
	switch {
	case name == "":
		errs.Add("name", ErrEmptyName, "This field may not be blank.")
	case len(name) > maxCategoryName:
		errs.Add("name", ErrNameTooLong, fmt.Sprintf("Ensure this field has no more than %d characters.", maxCategoryName))
	}
	if !c.Type.Valid() {
		errs.Add("type", ErrInvalidCategoryType, fmt.Sprintf("%q is not a valid choice.", string(c.Type)))
	}
	return errs.Err()
}

func (t Transaction) Validate() error {
	var errs ValidationErrors
	if err := ValidateAmount(t.Amount); err != nil {
		errs.Add("amount", err, AmountMessage(err))
	}
	if t.Date.IsZero() {
		errs.Add("date", ErrInvalidDate, "This field is required.")
	}
	if t.Category.ID <= 0 {
		errs.Add("category_id", ErrNotFound, "This field is required.")
	}
	return errs.Err()
}

func (b Budget) Validate() error {
	var errs ValidationErrors
	if err := ValidateAmount(b.Amount); err != nil {
		errs.Add("amount", err, AmountMessage(err))
	}
	if err := b.Period.Validate(); err != nil {
		errs.Add("period", err, PeriodMessage)
	}
	if b.Category.ID <= 0 {
		errs.Add("category_id", ErrNotFound, "This field is required.")
	}
	return errs.Err()
}

// PeriodMessage is the user-facing text for a malformed period.
const PeriodMessage = "Period must be in YYYY-MM format."
