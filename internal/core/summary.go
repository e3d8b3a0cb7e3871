package core

import "github.com/shopspring/decimal"

// CategorySpend is one row of a spending summary.
type CategorySpend struct {
	Category  string
	Spent     decimal.Decimal
	Budget    decimal.Decimal
	Remaining decimal.Decimal
}

type SummaryTotals struct {
	Spent     decimal.Decimal
	Budget    decimal.Decimal
	Remaining decimal.Decimal
}

// Summary is the spend-vs-budget breakdown for a filtered set of transactions.
type Summary struct {
	Rows   []CategorySpend
	Totals SummaryTotals
}

// HealthScore summarizes budget adherence for one month.
type HealthScore struct {
	Score   int
	Message string
	Period  Period
	Spent   decimal.Decimal
	Budget  decimal.Decimal
}

// BudgetStatus is a budget together with the spending recorded against it.
type BudgetStatus struct {
	Budget
	TotalSpent decimal.Decimal
	Remaining  decimal.Decimal
}

// TransactionFilter narrows a transaction listing. Zero values mean "unset".
// Start/End bounds and Month/Year matches combine with AND.
type TransactionFilter struct {
	Start      Date
	End        Date
	Month      int
	Year       int
	CategoryID int64
}

// Matches reports whether t passes every set criterion.
func (f TransactionFilter) Matches(t Transaction) bool {
	if !(DateRange{From: f.Start, To: f.End}).Contains(t.Date) {
		return false
	}
	if f.Month != 0 && int(t.Date.Month()) != f.Month {
		return false
	}
	if f.Year != 0 && t.Date.Year() != f.Year {
		return false
	}
	if f.CategoryID != 0 && t.Category.ID != f.CategoryID {
		return false
	}
	return true
}

// Period returns the budget period implied by the filter, which exists only
// when both month and year are set.
func (f TransactionFilter) Period() (Period, bool) {
	if f.Month == 0 || f.Year == 0 {
		return Period{}, false
	}
	return Period{Year: f.Year, Month: f.Month}, true
}
