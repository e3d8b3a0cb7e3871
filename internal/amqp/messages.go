package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finwell/internal/core"

	"github.com/google/uuid"
)

type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
)

// AlertPayload mirrors the budget alert returned to the client.
type AlertPayload struct {
	Type       string `json:"type"`
	Percentage string `json:"percentage"`
	Category   string `json:"category"`
	Spent      string `json:"spent"`
	Budget     string `json:"budget"`
	Message    string `json:"message"`
}

// TransactionEvent carries a full snapshot of the transaction so consumers
// never read back from the API's store. Amounts are 2-place decimal strings.
type TransactionEvent struct {
	MessageID     string        `json:"message_id"`
	Type          EventType     `json:"type"`
	OwnerID       string        `json:"owner_id"`
	TransactionID int64         `json:"transaction_id"`
	CategoryID    int64         `json:"category_id"`
	Category      string        `json:"category"`
	Amount        string        `json:"amount"`
	Date          string        `json:"date"`
	Description   string        `json:"description,omitempty"`
	Alert         *AlertPayload `json:"alert,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NewTransactionEvent snapshots t and its alert, if any.
func NewTransactionEvent(typ EventType, t core.Transaction, alert *core.Alert) *TransactionEvent {
	ev := &TransactionEvent{
		MessageID:     uuid.NewString(),
		Type:          typ,
		OwnerID:       t.Owner,
		TransactionID: t.ID,
		CategoryID:    t.Category.ID,
		Category:      t.Category.Name,
		Amount:        core.FormatAmount(t.Amount),
		Date:          t.Date.String(),
		Description:   t.Description,
		Timestamp:     time.Now().UTC(),
	}
	if alert != nil {
		ev.Alert = &AlertPayload{
			Type:       string(alert.Kind),
			Percentage: alert.Percentage.StringFixed(1),
			Category:   alert.Category,
			Spent:      core.FormatAmount(alert.Spent),
			Budget:     core.FormatAmount(alert.Budget),
			Message:    alert.Message,
		}
	}
	return ev
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and sanity-checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Type {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.OwnerID == "" || ev.TransactionID <= 0 {
		return nil, fmt.Errorf("event %s missing owner or transaction id", ev.MessageID)
	}
	return &ev, nil
}
