package storage

import (
	"context"

	"finwell/internal/core"

	"github.com/shopspring/decimal"
)

// Ports consumed by the services. Every method is scoped by owner and
// reports core.ErrNotFound for rows owned by someone else.
type (
	// LedgerStore aggregates and lists transactions.
	LedgerStore interface {
		// SumTransactions totals amounts in categoryID within r. A zero
		// categoryID sums across all categories.
		SumTransactions(ctx context.Context, owner string, categoryID int64, r core.DateRange) (decimal.Decimal, error)
		ListTransactions(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error)
	}

	TransactionStore interface {
		LedgerStore
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, owner string, id int64) error
	}

	BudgetStore interface {
		// FindBudget returns the budget for (owner, categoryID, period). When
		// several match, the most recently created wins. found is false when
		// none exists.
		FindBudget(ctx context.Context, owner string, categoryID int64, p core.Period) (b core.Budget, found bool, err error)
		// ListBudgets returns budgets ordered by id. A nil period lists all.
		ListBudgets(ctx context.Context, owner string, p *core.Period) ([]core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, owner string, id int64) (core.Budget, error)
		DeleteBudget(ctx context.Context, owner string, id int64) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, owner string, id int64) (core.Category, error)
		ListCategories(ctx context.Context, owner string) ([]core.Category, error)
		// DeleteCategory removes the category with its transactions and budgets.
		DeleteCategory(ctx context.Context, owner string, id int64) error
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		BudgetStore
		CategoryStore
		Ping(ctx context.Context) error
		Close() error
	}
)
