package services

import (
	"context"
	"fmt"
	"log/slog"

	"finwell/internal/core"
	"finwell/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ReportStore interface {
	storage.LedgerStore
	ListBudgets(ctx context.Context, owner string, p *core.Period) ([]core.Budget, error)
}

// ReportBuilder produces spend-versus-budget summaries.
type ReportBuilder struct {
	store ReportStore
}

func NewReportBuilder(store ReportStore) *ReportBuilder {
	return &ReportBuilder{store: store}
}

// BuildSummary groups the owner's filtered transactions by category name and
// joins each group with a budget amount. Budgets are restricted to one period
// only when the filter names both month and year; otherwise every budget the
// owner has is a candidate and the highest id per category name is used.
// Categories without transactions in range produce no row.
func (b *ReportBuilder) BuildSummary(ctx context.Context, owner string, f core.TransactionFilter) (core.Summary, error) {
	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	var period *core.Period
	if p, ok := f.Period(); ok {
		period = &p
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = b.store.ListTransactions(gctx, owner, f)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = b.store.ListBudgets(gctx, owner, period)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}

	budgetByName := make(map[string]decimal.Decimal, len(budgets))
	for _, bud := range budgets {
		budgetByName[bud.Category.Name] = bud.Amount
	}

	var order []string
	spent := make(map[string]decimal.Decimal)
	for _, t := range txs {
		name := t.Category.Name
		cur, seen := spent[name]
		if !seen {
			order = append(order, name)
		}
		spent[name] = cur.Add(t.Amount)
	}

	summary := core.Summary{Rows: make([]core.CategorySpend, 0, len(order))}
	totals := core.SummaryTotals{Spent: decimal.Zero, Budget: decimal.Zero}
	for _, name := range order {
		row := core.CategorySpend{
			Category: name,
			Spent:    spent[name],
			Budget:   budgetByName[name],
		}
		row.Remaining = row.Budget.Sub(row.Spent)
		summary.Rows = append(summary.Rows, row)

		totals.Spent = totals.Spent.Add(row.Spent)
		totals.Budget = totals.Budget.Add(row.Budget)
	}
	totals.Remaining = totals.Budget.Sub(totals.Spent)
	summary.Totals = totals

	slog.DebugContext(ctx, "Built spending summary",
		"owner_id", owner,
		"categories", len(summary.Rows),
		"transactions", len(txs),
		"budgets", len(budgets))
	return summary, nil
}
