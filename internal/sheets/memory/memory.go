package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	ports "finwell/internal/sheets"
)

var _ ports.TransactionExporter = (*Exporter)(nil)

// Exporter keeps exported rows in memory. The worker falls back to it when no
// spreadsheet is configured.
type Exporter struct {
	mu           sync.Mutex
	transactions []ports.TransactionRow
	alerts       []ports.AlertRow
}

func New() *Exporter {
	return &Exporter{}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (e *Exporter) AppendTransaction(ctx context.Context, r ports.TransactionRow) (string, error) {
	if r.TransactionID <= 0 || r.OwnerID == "" {
		return "", errors.New("transaction row missing owner or id")
	}
	e.mu.Lock()
	e.transactions = append(e.transactions, r)
	ref := fmt.Sprintf("mem:transactions:%d", len(e.transactions))
	e.mu.Unlock()

	slog.DebugContext(ctx, "Exported transaction row", "ref", ref, "action", r.Action, "transaction_id", r.TransactionID)
	return ref, nil
}

func (e *Exporter) AppendAlert(ctx context.Context, r ports.AlertRow) (string, error) {
	if r.Type == "" {
		return "", errors.New("alert row missing type")
	}
	e.mu.Lock()
	e.alerts = append(e.alerts, r)
	ref := fmt.Sprintf("mem:alerts:%d", len(e.alerts))
	e.mu.Unlock()

	slog.DebugContext(ctx, "Exported alert row", "ref", ref, "alert_type", r.Type, "transaction_id", r.TransactionID)
	return ref, nil
}

// Transactions returns a copy of the exported transaction rows.
func (e *Exporter) Transactions() []ports.TransactionRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.TransactionRow(nil), e.transactions...)
}

// Alerts returns a copy of the exported alert rows.
func (e *Exporter) Alerts() []ports.AlertRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.AlertRow(nil), e.alerts...)
}
