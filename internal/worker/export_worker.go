package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finwell/internal/amqp"
	"finwell/internal/cache"
	"finwell/internal/metrics"
	"finwell/internal/sheets"
)

const (
	seenCapacity = 10_000
	seenTTL      = 24 * time.Hour

	rowTransaction = "tx"
	rowAlert       = "alert"
)

// ExportWorker turns transaction events into export rows: one transaction row
// per event and one alert row when the event carries an alert.
type ExportWorker struct {
	exporter sheets.TransactionExporter
	seen     *cache.Seen
	metrics  *metrics.Metrics
}

func NewExportWorker(exporter sheets.TransactionExporter, m *metrics.Metrics) *ExportWorker {
	return &ExportWorker{
		exporter: exporter,
		seen:     cache.NewSeen(seenCapacity, seenTTL),
		metrics:  m,
	}
}

// HandleEvent exports ev. The transaction row and the alert row are tracked
// under separate keys, so a redelivery after a partial failure writes only
// the row that is still missing. A failed row is forgotten so the requeued
// delivery retries it.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	err := w.export(ctx, ev)
	w.metrics.ObserveEventHandled(string(ev.Type), err)
	return err
}

func (w *ExportWorker) export(ctx context.Context, ev *amqp.TransactionEvent) error {
	if w.claim(ev.MessageID, rowTransaction) {
		if err := w.exportTransaction(ctx, ev); err != nil {
			w.release(ev.MessageID, rowTransaction)
			return err
		}
	} else {
		slog.InfoContext(ctx, "Skipping already exported transaction row", "message_id", ev.MessageID)
	}

	if ev.Alert == nil {
		return nil
	}
	if !w.claim(ev.MessageID, rowAlert) {
		slog.InfoContext(ctx, "Skipping already exported alert row", "message_id", ev.MessageID)
		return nil
	}
	if err := w.exportAlert(ctx, ev); err != nil {
		w.release(ev.MessageID, rowAlert)
		return err
	}
	return nil
}

// claim reports whether the row of messageID still has to be written. Events
// without a message id are always written.
func (w *ExportWorker) claim(messageID, row string) bool {
	if messageID == "" {
		return true
	}
	return w.seen.FirstSeen(messageID + ":" + row)
}

func (w *ExportWorker) release(messageID, row string) {
	if messageID != "" {
		w.seen.Forget(messageID + ":" + row)
	}
}

func (w *ExportWorker) exportTransaction(ctx context.Context, ev *amqp.TransactionEvent) error {
	ref, err := w.exporter.AppendTransaction(ctx, sheets.TransactionRow{
		Action:        actionOf(ev.Type),
		OwnerID:       ev.OwnerID,
		TransactionID: ev.TransactionID,
		Date:          ev.Date,
		Category:      ev.Category,
		Description:   ev.Description,
		Amount:        ev.Amount,
		RecordedAt:    ev.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("export transaction %d: %w", ev.TransactionID, err)
	}
	slog.InfoContext(ctx, "Exported transaction", "transaction_id", ev.TransactionID, "type", ev.Type, "ref", ref)
	return nil
}

func (w *ExportWorker) exportAlert(ctx context.Context, ev *amqp.TransactionEvent) error {
	ref, err := w.exporter.AppendAlert(ctx, sheets.AlertRow{
		OwnerID:       ev.OwnerID,
		TransactionID: ev.TransactionID,
		Date:          ev.Date,
		Type:          ev.Alert.Type,
		Category:      ev.Alert.Category,
		Percentage:    ev.Alert.Percentage,
		Spent:         ev.Alert.Spent,
		Budget:        ev.Alert.Budget,
		Message:       ev.Alert.Message,
	})
	if err != nil {
		return fmt.Errorf("export alert for transaction %d: %w", ev.TransactionID, err)
	}
	slog.InfoContext(ctx, "Exported budget alert", "transaction_id", ev.TransactionID, "alert_type", ev.Alert.Type, "ref", ref)
	return nil
}

// SweepLoop drops expired message ids every interval until ctx is done.
func (w *ExportWorker) SweepLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := w.seen.Sweep(); n > 0 {
				slog.DebugContext(ctx, "Swept exported message ids", "removed", n)
			}
		}
	}
}

func actionOf(t amqp.EventType) string {
	switch t {
	case amqp.TransactionCreated:
		return "created"
	case amqp.TransactionUpdated:
		return "updated"
	case amqp.TransactionDeleted:
		return "deleted"
	default:
		return string(t)
	}
}
