package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"finwell/internal/core"
	"finwell/internal/storage"

	"github.com/shopspring/decimal"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every record in process memory. Rows are copied in and out so
// callers never share state with the store.
type Store struct {
	mu           sync.Mutex
	nextID       int64
	categories   map[int64]core.Category
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget
	now          func() time.Time
}

func New() *Store {
	return &Store{
		categories:   make(map[int64]core.Category),
		transactions: make(map[int64]core.Transaction),
		budgets:      make(map[int64]core.Budget),
		now:          time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// ownedCategory must be called with s.mu held.
func (s *Store) ownedCategory(owner string, id int64) (core.Category, error) {
	c, ok := s.categories[id]
	if !ok || c.Owner != owner {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedCategory(c.Owner, c.ID); err != nil {
		return core.Category{}, err
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, owner string, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownedCategory(owner, id)
}

func (s *Store) ListCategories(_ context.Context, owner string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedCategory(owner, id); err != nil {
		return err
	}
	delete(s.categories, id)
	for tid, t := range s.transactions {
		if t.Category.ID == id {
			delete(s.transactions, tid)
		}
	}
	for bid, b := range s.budgets {
		if b.Category.ID == id {
			delete(s.budgets, bid)
		}
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedCategory(t.Owner, t.Category.ID); err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.id()
	s.transactions[t.ID] = t
	return s.hydrateTransaction(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.transactions[t.ID]
	if !ok || cur.Owner != t.Owner {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	if _, err := s.ownedCategory(t.Owner, t.Category.ID); err != nil {
		return core.Transaction{}, err
	}
	s.transactions[t.ID] = t
	return s.hydrateTransaction(t), nil
}

func (s *Store) GetTransaction(_ context.Context, owner string, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.Owner != owner {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return s.hydrateTransaction(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.Owner != owner {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.Owner == owner && f.Matches(t) {
			out = append(out, s.hydrateTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SumTransactions(_ context.Context, owner string, categoryID int64, r core.DateRange) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := core.TransactionFilter{Start: r.From, End: r.To, CategoryID: categoryID}
	total := decimal.Zero
	for _, t := range s.transactions {
		if t.Owner == owner && f.Matches(t) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// hydrateTransaction must be called with s.mu held.
func (s *Store) hydrateTransaction(t core.Transaction) core.Transaction {
	if c, ok := s.categories[t.Category.ID]; ok {
		t.Category = c
	}
	return t
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedCategory(b.Owner, b.Category.ID); err != nil {
		return core.Budget{}, err
	}
	b.ID = s.id()
	b.CreatedAt = s.now().UTC()
	s.budgets[b.ID] = b
	return s.hydrateBudget(b), nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.budgets[b.ID]
	if !ok || cur.Owner != b.Owner {
		return core.Budget{}, fmt.Errorf("budget %d: %w", b.ID, core.ErrNotFound)
	}
	if _, err := s.ownedCategory(b.Owner, b.Category.ID); err != nil {
		return core.Budget{}, err
	}
	b.CreatedAt = cur.CreatedAt
	s.budgets[b.ID] = b
	return s.hydrateBudget(b), nil
}

func (s *Store) GetBudget(_ context.Context, owner string, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.Owner != owner {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return s.hydrateBudget(b), nil
}

func (s *Store) FindBudget(_ context.Context, owner string, categoryID int64, p core.Period) (core.Budget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		found bool
		best  core.Budget
	)
	for _, b := range s.budgets {
		if b.Owner != owner || b.Category.ID != categoryID || b.Period != p {
			continue
		}
		if !found || b.ID > best.ID {
			best, found = b, true
		}
	}
	if !found {
		return core.Budget{}, false, nil
	}
	return s.hydrateBudget(best), true, nil
}

func (s *Store) ListBudgets(_ context.Context, owner string, p *core.Period) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Owner != owner {
			continue
		}
		if p != nil && b.Period != *p {
			continue
		}
		out = append(out, s.hydrateBudget(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.Owner != owner {
		return fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	delete(s.budgets, id)
	return nil
}

// hydrateBudget must be called with s.mu held.
func (s *Store) hydrateBudget(b core.Budget) core.Budget {
	if c, ok := s.categories[b.Category.ID]; ok {
		b.Category = c
	}
	return b
}
