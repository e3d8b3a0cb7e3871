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

const budgetStatusConcurrency = 4

// DuplicateBudgetMessage is reported when (category, period) is already budgeted.
const DuplicateBudgetMessage = "A budget for this category and period already exists."

// BudgetPatch holds the fields supplied by a partial update.
type BudgetPatch struct {
	CategoryID *int64
	Amount     *decimal.Decimal
	Period     *core.Period
}

// BudgetService manages budgets and attaches live spending to every read.
type BudgetService struct {
	budgets    storage.BudgetStore
	categories storage.CategoryStore
	aggregator *SpendingAggregator
}

func NewBudgetService(budgets storage.BudgetStore, categories storage.CategoryStore, aggregator *SpendingAggregator) *BudgetService {
	return &BudgetService{budgets: budgets, categories: categories, aggregator: aggregator}
}

// Create rejects a second budget for the same category and period.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.BudgetStatus, error) {
	if err := s.validate(ctx, b); err != nil {
		return core.BudgetStatus{}, err
	}
	_, exists, err := s.budgets.FindBudget(ctx, b.Owner, b.Category.ID, b.Period)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("find budget: %w", err)
	}
	if exists {
		return core.BudgetStatus{}, core.FieldError(core.NonFieldErrors, core.ErrDuplicateBudget, DuplicateBudgetMessage)
	}

	saved, err := s.budgets.CreateBudget(ctx, b)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("create budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget created",
		"budget_id", saved.ID,
		"category_id", saved.Category.ID,
		"period", saved.Period.String())
	return s.status(ctx, saved)
}

// Update does not re-check uniqueness, so retargeting a budget onto an
// existing (category, period) leaves two matching rows.
func (s *BudgetService) Update(ctx context.Context, b core.Budget) (core.BudgetStatus, error) {
	if _, err := s.budgets.GetBudget(ctx, b.Owner, b.ID); err != nil {
		return core.BudgetStatus{}, fmt.Errorf("get budget: %w", err)
	}
	if err := s.validate(ctx, b); err != nil {
		return core.BudgetStatus{}, err
	}
	saved, err := s.budgets.UpdateBudget(ctx, b)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("update budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget updated",
		"budget_id", saved.ID,
		"category_id", saved.Category.ID,
		"period", saved.Period.String())
	return s.status(ctx, saved)
}

func (s *BudgetService) Patch(ctx context.Context, owner string, id int64, p BudgetPatch) (core.BudgetStatus, error) {
	cur, err := s.budgets.GetBudget(ctx, owner, id)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("get budget: %w", err)
	}
	if p.CategoryID != nil {
		cur.Category = core.Category{ID: *p.CategoryID}
	}
	if p.Amount != nil {
		cur.Amount = *p.Amount
	}
	if p.Period != nil {
		cur.Period = *p.Period
	}
	return s.Update(ctx, cur)
}

func (s *BudgetService) Get(ctx context.Context, owner string, id int64) (core.BudgetStatus, error) {
	b, err := s.budgets.GetBudget(ctx, owner, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return s.status(ctx, b)
}

// List returns the owner's budgets, optionally for one period, each with its
// current spending.
func (s *BudgetService) List(ctx context.Context, owner string, p *core.Period) ([]core.BudgetStatus, error) {
	budgets, err := s.budgets.ListBudgets(ctx, owner, p)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]core.BudgetStatus, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(budgetStatusConcurrency)
	for i, b := range budgets {
		g.Go(func() error {
			st, err := s.status(gctx, b)
			if err != nil {
				return err
			}
			out[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BudgetService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.budgets.DeleteBudget(ctx, owner, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget deleted", "budget_id", id)
	return nil
}

func (s *BudgetService) status(ctx context.Context, b core.Budget) (core.BudgetStatus, error) {
	spent, err := s.aggregator.TotalSpent(ctx, b.Owner, b.Category.ID, b.Period)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.BudgetStatus{Budget: b, TotalSpent: spent, Remaining: b.Amount.Sub(spent)}, nil
}

func (s *BudgetService) validate(ctx context.Context, b core.Budget) error {
	var errs core.ValidationErrors
	if verrs, ok := core.AsValidation(b.Validate()); ok {
		errs = verrs
	}
	if b.Category.ID > 0 {
		if err := ownedCategory(ctx, s.categories, b.Owner, b.Category.ID); err != nil {
			verrs, ok := core.AsValidation(err)
			if !ok {
				return err
			}
			errs = append(errs, verrs...)
		}
	}
	return errs.Err()
}
