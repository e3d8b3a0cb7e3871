package services

import (
	"context"
	"fmt"

	"finwell/internal/core"
	"finwell/internal/storage"

	"github.com/shopspring/decimal"
)

// SpendingAggregator totals transaction amounts per owner, category and month.
type SpendingAggregator struct {
	ledger storage.LedgerStore
}

func NewSpendingAggregator(ledger storage.LedgerStore) *SpendingAggregator {
	return &SpendingAggregator{ledger: ledger}
}

// TotalSpent sums every transaction of owner in categoryID dated within p.
// A zero categoryID sums all categories. No matching rows yields zero.
func (a *SpendingAggregator) TotalSpent(ctx context.Context, owner string, categoryID int64, p core.Period) (decimal.Decimal, error) {
	if err := p.Validate(); err != nil {
		return decimal.Zero, fmt.Errorf("total spent: %w", err)
	}
	sum, err := a.ledger.SumTransactions(ctx, owner, categoryID, p.Range())
	if err != nil {
		return decimal.Zero, fmt.Errorf("total spent for %s: %w", p, err)
	}
	return sum, nil
}
