package services

import (
	"context"
	"fmt"

	"finwell/internal/core"
	"finwell/internal/storage"

	"github.com/shopspring/decimal"
)

var (
	nearLimitPercent = decimal.NewFromInt(80)
	fullPercent      = decimal.NewFromInt(100)
)

// AlertEvaluator classifies a persisted transaction against its month's budget.
type AlertEvaluator struct {
	budgets    storage.BudgetStore
	aggregator *SpendingAggregator
}

func NewAlertEvaluator(budgets storage.BudgetStore, aggregator *SpendingAggregator) *AlertEvaluator {
	return &AlertEvaluator{budgets: budgets, aggregator: aggregator}
}

// Evaluate returns nil when the category has no budget for the transaction's
// month or when spending is under 80% of it. The transaction must already be
// stored so that it counts toward the total.
func (e *AlertEvaluator) Evaluate(ctx context.Context, t core.Transaction) (*core.Alert, error) {
	period := t.Date.Period()
	budget, found, err := e.budgets.FindBudget(ctx, t.Owner, t.Category.ID, period)
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}
	if !found {
		return nil, nil
	}

	spent, err := e.aggregator.TotalSpent(ctx, t.Owner, t.Category.ID, period)
	if err != nil {
		return nil, err
	}

	name := budget.Category.Name
	if name == "" {
		name = t.Category.Name
	}
	return ClassifyAlert(name, spent, budget.Amount), nil
}

// ClassifyAlert maps spent against budget onto an alert, or nil below 80%.
//
//	spent 405, budget 500 -> near_limit, "81.0%"
//	spent 600, budget 500 -> exceeded,   "20.0%" over
//	spent 500, budget 500 -> near_limit  (exceeded is strictly above 100%)
//	spent 1,   budget 0   -> exceeded
func ClassifyAlert(category string, spent, budget decimal.Decimal) *core.Alert {
	if budget.IsZero() {
		if !spent.IsPositive() {
			return nil
		}
		return &core.Alert{
			Kind:       core.AlertExceeded,
			Percentage: fullPercent,
			Category:   category,
			Spent:      spent,
			Budget:     budget,
			Message: fmt.Sprintf("Budget exceeded! You've spent %s over your %s budget (%s/%s).",
				core.FormatAmount(spent), category, core.FormatAmount(spent), core.FormatAmount(budget)),
		}
	}

	ratio := core.Percent(spent, budget)
	switch {
	case ratio.GreaterThan(fullPercent):
		return &core.Alert{
			Kind:       core.AlertExceeded,
			Percentage: ratio,
			Category:   category,
			Spent:      spent,
			Budget:     budget,
			Message: fmt.Sprintf("Budget exceeded! You've spent %s%% over your %s budget (%s/%s).",
				ratio.Sub(fullPercent).StringFixed(1), category, core.FormatAmount(spent), core.FormatAmount(budget)),
		}
	case ratio.GreaterThanOrEqual(nearLimitPercent):
		return &core.Alert{
			Kind:       core.AlertNearLimit,
			Percentage: ratio,
			Category:   category,
			Spent:      spent,
			Budget:     budget,
			Message: fmt.Sprintf("Budget alert: You've used %s%% of your %s budget (%s/%s).",
				ratio.StringFixed(1), category, core.FormatAmount(spent), core.FormatAmount(budget)),
		}
	default:
		return nil
	}
}
