package services

import (
	"context"
	"fmt"
	"time"

	"finwell/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// HealthCalculator scores current-month budget adherence from 0 to 100.
type HealthCalculator struct {
	store      ReportStore
	aggregator *SpendingAggregator
}

func NewHealthCalculator(store ReportStore, aggregator *SpendingAggregator) *HealthCalculator {
	return &HealthCalculator{store: store, aggregator: aggregator}
}

// HealthScore scores the calendar month containing asOf across all categories.
func (h *HealthCalculator) HealthScore(ctx context.Context, owner string, asOf time.Time) (core.HealthScore, error) {
	period := core.DateOf(asOf).Period()

	var (
		spent   decimal.Decimal
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		spent, err = h.aggregator.TotalSpent(gctx, owner, 0, period)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = h.store.ListBudgets(gctx, owner, &period)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.HealthScore{}, err
	}

	budgetTotal := decimal.Zero
	for _, b := range budgets {
		budgetTotal = budgetTotal.Add(b.Amount)
	}

	score := ComputeHealthScore(spent, budgetTotal)
	return core.HealthScore{
		Score:   score,
		Message: HealthMessage(score),
		Period:  period,
		Spent:   spent,
		Budget:  budgetTotal,
	}, nil
}

// ComputeHealthScore returns 100 minus the overspent share of budget in whole
// percent, floored at 0. A non-positive budget counts as no overspending.
func ComputeHealthScore(spent, budget decimal.Decimal) int {
	if !budget.IsPositive() {
		return 100
	}
	over := spent.Sub(budget).Div(budget)
	if over.IsNegative() {
		over = decimal.Zero
	}
	penalty := over.Mul(fullPercent).Floor().IntPart()
	if penalty >= 100 {
		return 0
	}
	return 100 - int(penalty)
}

func HealthMessage(score int) string {
	switch {
	case score >= 90:
		return "Excellent! You're well within your budgets."
	case score >= 75:
		return "Good job! You're within most of your budgets."
	case score >= 50:
		return "Caution: You're approaching your budget limits."
	default:
		return "Warning: You're overspending. Review your budgets."
	}
}
