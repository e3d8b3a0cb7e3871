package services

import (
	"context"
	"errors"
	"testing"

	"finwell/internal/amqp"
	"finwell/internal/core"
	"finwell/internal/metrics"
	"finwell/internal/storage/memory"
)

func newTransactionService(f *fixture, pub EventPublisher) *TransactionService {
	agg := NewSpendingAggregator(f.store)
	return NewTransactionService(f.store, f.store, NewAlertEvaluator(f.store, agg), pub, metrics.New())
}

func TestTransactionService_CreateReturnsAlert(t *testing.T) {
	f := newFixture(t)
	food := f.category("alice", "Food")
	f.budget("alice", food, "500", core.Period{Year: 2025, Month: 5})
	pub := &recordingPublisher{}
	svc := newTransactionService(f, pub)
	ctx := context.Background()

	res, err := svc.Create(ctx, core.Transaction{
		Owner: "alice", Category: core.Category{ID: food.ID}, Amount: dec("100"), Date: core.NewDate(2025, 5, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Alert != nil {
		t.Fatalf("20%% of budget should not alert, got %+v", res.Alert)
	}

	res, err = svc.Create(ctx, core.Transaction{
		Owner: "alice", Category: core.Category{ID: food.ID}, Amount: dec("500"), Date: core.NewDate(2025, 5, 2),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Alert == nil || res.Alert.Kind != core.AlertExceeded {
		t.Fatalf("expected exceeded alert, got %+v", res.Alert)
	}
	if res.Transaction.Category.Name != "Food" {
		t.Errorf("category not populated: %+v", res.Transaction.Category)
	}

	ev := pub.last()
	if ev == nil || ev.Type != amqp.TransactionCreated || ev.Alert == nil || ev.Alert.Type != "exceeded" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestTransactionService_Validation(t *testing.T) {
	f := newFixture(t)
	f.category("bob", "Food")
	svc := newTransactionService(f, nil)

	tests := []struct {
		name       string
		tx         core.Transaction
		wantFields map[string]string
	}{
		{
			name: "foreign category",
			tx:   core.Transaction{Owner: "alice", Category: core.Category{ID: 1}, Amount: dec("5"), Date: core.NewDate(2025, 1, 1)},
			wantFields: map[string]string{
				"category_id": `Invalid pk "1" - object does not exist.`,
			},
		},
		{
			name: "non-positive amount and missing date",
			tx:   core.Transaction{Owner: "alice", Category: core.Category{ID: 99}, Amount: dec("-5")},
			wantFields: map[string]string{
				"amount":      "Amount must be positive.",
				"date":        "This field is required.",
				"category_id": `Invalid pk "99" - object does not exist.`,
			},
		},
		{
			name:       "too many decimals",
			tx:         core.Transaction{Owner: "bob", Category: core.Category{ID: 1}, Amount: dec("1.005"), Date: core.NewDate(2025, 1, 1)},
			wantFields: map[string]string{"amount": "Ensure that there are no more than 2 decimal places."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.tx)
			verrs, ok := core.AsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			fields := verrs.Fields()
			if len(fields) != len(tt.wantFields) {
				t.Errorf("fields = %v, want %v", fields, tt.wantFields)
			}
			for field, msg := range tt.wantFields {
				if got := fields[field]; len(got) != 1 || got[0] != msg {
					t.Errorf("%s = %v, want %q", field, got, msg)
				}
			}
		})
	}

	list, err := f.store.ListTransactions(context.Background(), "alice", core.TransactionFilter{})
	if err != nil || len(list) != 0 {
		t.Fatalf("rejected writes must not persist, got %v (%v)", list, err)
	}
}

func TestTransactionService_UpdateReevaluates(t *testing.T) {
	f := newFixture(t)
	food := f.category("alice", "Food")
	rent := f.category("alice", "Rent")
	f.budget("alice", food, "100", core.Period{Year: 2025, Month: 3})
	pub := &recordingPublisher{}
	svc := newTransactionService(f, pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Transaction{
		Owner: "alice", Category: core.Category{ID: rent.ID}, Amount: dec("85"), Date: core.NewDate(2025, 3, 10),
	})
	if err != nil || created.Alert != nil {
		t.Fatalf("create: %+v (%v)", created.Alert, err)
	}

	moved := created.Transaction
	moved.Category = core.Category{ID: food.ID}
	updated, err := svc.Update(ctx, moved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Alert == nil || updated.Alert.Kind != core.AlertNearLimit {
		t.Fatalf("expected near_limit after moving into budgeted category, got %+v", updated.Alert)
	}

	amount := dec("150")
	patched, err := svc.Patch(ctx, "alice", created.Transaction.ID, TransactionPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.Alert == nil || patched.Alert.Kind != core.AlertExceeded {
		t.Fatalf("expected exceeded after patch, got %+v", patched.Alert)
	}
	if patched.Transaction.Category.ID != food.ID {
		t.Errorf("patch must keep the category, got %+v", patched.Transaction.Category)
	}
	if ev := pub.last(); ev.Type != amqp.TransactionUpdated {
		t.Errorf("last event = %s", ev.Type)
	}

	if _, err := svc.Update(ctx, core.Transaction{ID: 999, Owner: "alice"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.Patch(ctx, "bob", created.Transaction.ID, TransactionPatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found for other owner, got %v", err)
	}
}

func TestTransactionService_DeletePublishesWithoutAlert(t *testing.T) {
	f := newFixture(t)
	food := f.category("alice", "Food")
	f.budget("alice", food, "10", core.Period{Year: 2025, Month: 3})
	tx := f.transaction("alice", food, "50", core.NewDate(2025, 3, 1))
	pub := &recordingPublisher{}
	svc := newTransactionService(f, pub)

	if err := svc.Delete(context.Background(), "alice", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ev := pub.last()
	if ev == nil || ev.Type != amqp.TransactionDeleted || ev.Alert != nil || ev.TransactionID != tx.ID {
		t.Fatalf("unexpected event %+v", ev)
	}
	if err := svc.Delete(context.Background(), "alice", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	food := f.category("alice", "Food")
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	svc := newTransactionService(f, pub)

	res, err := svc.Create(context.Background(), core.Transaction{
		Owner: "alice", Category: core.Category{ID: food.ID}, Amount: dec("5"), Date: core.NewDate(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create should succeed when publishing fails: %v", err)
	}
	if res.Transaction.ID == 0 {
		t.Fatal("transaction was not stored")
	}
}

func TestTransactionService_ReplaceKeepsOmittedDescription(t *testing.T) {
	f := newFixture(t)
	food := f.category("alice", "Food")
	svc := newTransactionService(f, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Transaction{
		Owner: "alice", Category: core.Category{ID: food.ID}, Amount: dec("10"),
		Date: core.NewDate(2025, 4, 1), Description: "groceries",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount, date := dec("20"), core.NewDate(2025, 4, 2)
	res, err := svc.Patch(ctx, "alice", created.Transaction.ID, TransactionPatch{
		CategoryID: &food.ID, Amount: &amount, Date: &date,
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if res.Transaction.Description != "groceries" || !res.Transaction.Amount.Equal(amount) {
		t.Errorf("after replace = %+v", res.Transaction)
	}

	stored, err := svc.Get(ctx, "alice", created.Transaction.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Description != "groceries" {
		t.Errorf("stored description = %q, want groceries", stored.Description)
	}

	empty := ""
	res, err = svc.Patch(ctx, "alice", created.Transaction.ID, TransactionPatch{Description: &empty})
	if err != nil {
		t.Fatalf("clear description: %v", err)
	}
	if res.Transaction.Description != "" {
		t.Errorf("explicit empty description should clear it, got %q", res.Transaction.Description)
	}
}

// failingBudgets makes every budget lookup fail after the row is stored.
type failingBudgets struct {
	*memory.Store
}

func (failingBudgets) FindBudget(context.Context, string, int64, core.Period) (core.Budget, bool, error) {
	return core.Budget{}, false, errors.New("budgets unavailable")
}

func TestTransactionService_EvaluationFailureKeepsWrite(t *testing.T) {
	f := newFixture(t)
	food := f.category("alice", "Food")
	pub := &recordingPublisher{}
	budgets := failingBudgets{f.store}
	svc := NewTransactionService(f.store, f.store,
		NewAlertEvaluator(budgets, NewSpendingAggregator(f.store)), pub, metrics.New())

	res, err := svc.Create(context.Background(), core.Transaction{
		Owner: "alice", Category: core.Category{ID: food.ID}, Amount: dec("5"), Date: core.NewDate(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create should succeed when the alert cannot be evaluated: %v", err)
	}
	if res.Transaction.ID == 0 || res.Alert != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	ev := pub.last()
	if ev == nil || ev.Type != amqp.TransactionCreated || ev.TransactionID != res.Transaction.ID {
		t.Fatalf("event should still be published, got %+v", ev)
	}
}
