package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finwell/internal/amqp"
	"finwell/internal/core"
	"finwell/internal/metrics"
	"finwell/internal/storage"

	"github.com/shopspring/decimal"
)

// EventPublisher sends transaction events to the export pipeline.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionResult is a stored transaction with the alert its write produced.
type TransactionResult struct {
	Transaction core.Transaction
	Alert       *core.Alert
}

// TransactionPatch holds the fields supplied by a partial update.
type TransactionPatch struct {
	CategoryID  *int64
	Amount      *decimal.Decimal
	Date        *core.Date
	Description *string
}

// TransactionService validates and stores transactions, evaluates the budget
// alert for each write and publishes an event for the export worker.
type TransactionService struct {
	transactions storage.TransactionStore
	categories   storage.CategoryStore
	evaluator    *AlertEvaluator
	publisher    EventPublisher
	metrics      *metrics.Metrics
}

// NewTransactionService wires the service. publisher and m may be nil.
func NewTransactionService(
	transactions storage.TransactionStore,
	categories storage.CategoryStore,
	evaluator *AlertEvaluator,
	publisher EventPublisher,
	m *metrics.Metrics,
) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		categories:   categories,
		evaluator:    evaluator,
		publisher:    publisher,
		metrics:      m,
	}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (TransactionResult, error) {
	if err := s.validate(ctx, t); err != nil {
		return TransactionResult{}, err
	}
	saved, err := s.transactions.CreateTransaction(ctx, t)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", saved.ID,
		"category_id", saved.Category.ID,
		"amount", core.FormatAmount(saved.Amount))
	return s.afterWrite(ctx, amqp.TransactionCreated, saved)
}

// Update replaces every mutable field of t.ID and re-evaluates the alert.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (TransactionResult, error) {
	if _, err := s.transactions.GetTransaction(ctx, t.Owner, t.ID); err != nil {
		return TransactionResult{}, fmt.Errorf("get transaction: %w", err)
	}
	if err := s.validate(ctx, t); err != nil {
		return TransactionResult{}, err
	}
	saved, err := s.transactions.UpdateTransaction(ctx, t)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("update transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", saved.ID,
		"category_id", saved.Category.ID,
		"amount", core.FormatAmount(saved.Amount))
	return s.afterWrite(ctx, amqp.TransactionUpdated, saved)
}

// Patch applies only the supplied fields, then behaves like Update. A full
// replacement that omits the optional description goes through Patch too, so
// the stored description survives.
func (s *TransactionService) Patch(ctx context.Context, owner string, id int64, p TransactionPatch) (TransactionResult, error) {
	cur, err := s.transactions.GetTransaction(ctx, owner, id)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("get transaction: %w", err)
	}
	if p.CategoryID != nil {
		cur.Category = core.Category{ID: *p.CategoryID}
	}
	if p.Amount != nil {
		cur.Amount = *p.Amount
	}
	if p.Date != nil {
		cur.Date = *p.Date
	}
	if p.Description != nil {
		cur.Description = *p.Description
	}
	return s.Update(ctx, cur)
}

func (s *TransactionService) Get(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	return s.transactions.GetTransaction(ctx, owner, id)
}

func (s *TransactionService) List(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	return s.transactions.ListTransactions(ctx, owner, f)
}

// Delete removes the transaction. Deletions never produce alerts.
func (s *TransactionService) Delete(ctx context.Context, owner string, id int64) error {
	cur, err := s.transactions.GetTransaction(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if err := s.transactions.DeleteTransaction(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.TransactionDeleted, cur, nil))
	return nil
}

func (s *TransactionService) afterWrite(ctx context.Context, typ amqp.EventType, saved core.Transaction) (TransactionResult, error) {
	// The row is already committed; an evaluation failure only costs the alert.
	alert, err := s.evaluator.Evaluate(ctx, saved)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to evaluate budget alert",
			"transaction_id", saved.ID,
			"error", err)
		alert = nil
	}
	if alert != nil {
		s.metrics.ObserveAlert(string(alert.Kind))
		slog.InfoContext(ctx, "Budget alert raised",
			"transaction_id", saved.ID,
			"alert_type", alert.Kind,
			"percentage", alert.Percentage.StringFixed(1))
	}
	s.publish(ctx, amqp.NewTransactionEvent(typ, saved, alert))
	return TransactionResult{Transaction: saved, Alert: alert}, nil
}

// publish never fails the request: the write is already committed.
func (s *TransactionService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "type", ev.Type)
		return
	}
	err := s.publisher.PublishTransactionEvent(ctx, ev)
	s.metrics.ObserveEventPublished(string(ev.Type), err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", ev.Type,
			"transaction_id", ev.TransactionID,
			"error", err)
	}
}

func (s *TransactionService) validate(ctx context.Context, t core.Transaction) error {
	var errs core.ValidationErrors
	if verrs, ok := core.AsValidation(t.Validate()); ok {
		errs = verrs
	}
	if t.Category.ID > 0 {
		if err := ownedCategory(ctx, s.categories, t.Owner, t.Category.ID); err != nil {
			verrs, ok := core.AsValidation(err)
			if !ok {
				return err
			}
			errs = append(errs, verrs...)
		}
	}
	return errs.Err()
}

// ownedCategory turns a missing or foreign category into a category_id field
// error so it never reveals whether another owner has that id.
func ownedCategory(ctx context.Context, categories storage.CategoryStore, owner string, id int64) error {
	_, err := categories.GetCategory(ctx, owner, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.FieldError("category_id", core.ErrNotFound,
			fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
	}
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	return nil
}
