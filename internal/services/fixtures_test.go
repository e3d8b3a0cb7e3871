package services

import (
	"context"
	"sync"
	"testing"

	"finwell/internal/amqp"
	"finwell/internal/core"
	"finwell/internal/storage/memory"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	t     *testing.T
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, store: memory.New()}
}

func (f *fixture) category(owner, name string) core.Category {
	f.t.Helper()
	c, err := f.store.CreateCategory(context.Background(), core.Category{Owner: owner, Name: name, Type: core.Expense})
	if err != nil {
		f.t.Fatalf("create category: %v", err)
	}
	return c
}

func (f *fixture) budget(owner string, c core.Category, amount string, p core.Period) core.Budget {
	f.t.Helper()
	b, err := f.store.CreateBudget(context.Background(), core.Budget{
		Owner: owner, Category: core.Category{ID: c.ID}, Amount: dec(amount), Period: p,
	})
	if err != nil {
		f.t.Fatalf("create budget: %v", err)
	}
	return b
}

func (f *fixture) transaction(owner string, c core.Category, amount string, d core.Date) core.Transaction {
	f.t.Helper()
	tx, err := f.store.CreateTransaction(context.Background(), core.Transaction{
		Owner: owner, Category: core.Category{ID: c.ID}, Amount: dec(amount), Date: d,
	})
	if err != nil {
		f.t.Fatalf("create transaction: %v", err)
	}
	return tx
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) last() *amqp.TransactionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}
