package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"finwell/internal/core"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"wrapped amqp closed", fmt.Errorf("message channel closed: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("some other error"), false},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "finwell", queueName: "transaction_events"}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("circuit breaker should be closed initially")
		}
	})

	t.Run("record success resets state", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 3)
		atomic.StoreInt32(&client.state, StateOpen)

		client.recordSuccess()

		if atomic.LoadInt64(&client.failureCount) != 0 {
			t.Error("failure count should be reset after success")
		}
		if atomic.LoadInt32(&client.state) != StateClosed {
			t.Error("state should be closed after success")
		}
	})

	t.Run("multiple failures open circuit", func(t *testing.T) {
		client.recordSuccess()
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		if !client.isCircuitOpen() {
			t.Error("circuit breaker should be open after max failures")
		}
	})

	t.Run("half-open after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		if client.isCircuitOpen() {
			t.Error("circuit should let a probe through after the timeout")
		}
		if atomic.LoadInt32(&client.state) != StateHalfOpen {
			t.Error("state should be half-open after timeout")
		}
	})

	t.Run("half-open failure reopens", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateHalfOpen)
		atomic.StoreInt64(&client.failureCount, 0)
		client.recordFailure()
		if atomic.LoadInt32(&client.state) != StateOpen {
			t.Error("a failed probe should reopen the circuit")
		}
	})
}

func TestClient_PublishGuards(t *testing.T) {
	client := &Client{exchangeName: "finwell", queueName: "transaction_events"}
	ev := &TransactionEvent{MessageID: "m1", Type: TransactionCreated, OwnerID: "alice", TransactionID: 1}

	t.Run("fails fast when circuit is open", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishTransactionEvent(context.Background(), ev)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("expected ErrCircuitOpen, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		client.recordSuccess()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishTransactionEvent(ctx, ev); err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestNewTransactionEvent(t *testing.T) {
	tx := core.Transaction{
		ID:          42,
		Owner:       "alice",
		Category:    core.Category{ID: 7, Name: "Food", Type: core.Expense},
		Amount:      decimal.RequireFromString("50"),
		Date:        core.NewDate(2025, 5, 20),
		Description: "groceries",
	}
	alert := &core.Alert{
		Kind:       core.AlertExceeded,
		Percentage: decimal.RequireFromString("120"),
		Category:   "Food",
		Spent:      decimal.RequireFromString("600"),
		Budget:     decimal.RequireFromString("500"),
		Message:    "over",
	}

	ev := NewTransactionEvent(TransactionUpdated, tx, alert)

	if ev.MessageID == "" {
		t.Error("message id should be set")
	}
	if ev.Amount != "50.00" || ev.Date != "2025-05-20" || ev.Category != "Food" || ev.CategoryID != 7 {
		t.Errorf("unexpected snapshot: %+v", ev)
	}
	if ev.Alert == nil || ev.Alert.Type != "exceeded" || ev.Alert.Percentage != "120.0" || ev.Alert.Budget != "500.00" {
		t.Errorf("unexpected alert payload: %+v", ev.Alert)
	}

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	parsed, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON: %v", err)
	}
	if parsed.MessageID != ev.MessageID || parsed.Alert == nil {
		t.Errorf("parsed event lost data: %+v", parsed)
	}
}

func TestTransactionEventFromJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"type":`},
		{"wrong id type", `{"type":"transaction.created","owner_id":"a","transaction_id":"x"}`},
		{"unknown type", `{"type":"expense.synced","owner_id":"a","transaction_id":1}`},
		{"missing owner", `{"type":"transaction.created","transaction_id":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TransactionEventFromJSON([]byte(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

type fakeAck struct {
	acks, nacks int
	requeue     bool
	err         error
}

func (f *fakeAck) Ack(uint64, bool) error { f.acks++; return f.err }

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return f.err
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error { return f.Nack(0, false, requeue) }

func TestHandleDelivery(t *testing.T) {
	valid := `{"message_id":"m1","type":"transaction.created","owner_id":"alice","transaction_id":3}`

	tests := []struct {
		name        string
		body        string
		handlerErr  error
		want        disposition
		wantRequeue bool
	}{
		{"ack on success", valid, nil, acked, false},
		{"requeue on handler error", valid, errors.New("sheets down"), requeued, true},
		{"drop malformed", `garbage`, nil, rejected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			d := amqp091.Delivery{Acknowledger: ack, Body: []byte(tt.body)}
			called := false
			got := handleDelivery(context.Background(), d, func(_ context.Context, ev *TransactionEvent) error {
				called = true
				if !strings.HasPrefix(string(ev.Type), "transaction.") {
					t.Errorf("unexpected type %q", ev.Type)
				}
				return tt.handlerErr
			}, 0)
			if got != tt.want {
				t.Fatalf("disposition = %v, want %v", got, tt.want)
			}
			if tt.want == rejected && called {
				t.Error("handler must not run for malformed bodies")
			}
			if tt.want == acked && ack.acks != 1 {
				t.Error("expected one ack")
			}
			if tt.want != acked && (ack.nacks != 1 || ack.requeue != tt.wantRequeue) {
				t.Errorf("nacks=%d requeue=%v, want 1/%v", ack.nacks, ack.requeue, tt.wantRequeue)
			}
		})
	}
}

func TestHandleDelivery_WaitsBeforeRequeue(t *testing.T) {
	valid := `{"message_id":"m1","type":"transaction.created","owner_id":"alice","transaction_id":3}`
	failing := func(context.Context, *TransactionEvent) error { return errors.New("sheets down") }

	ack := &fakeAck{}
	start := time.Now()
	got := handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack, Body: []byte(valid)}, failing, 30*time.Millisecond)
	if got != requeued || ack.nacks != 1 || !ack.requeue {
		t.Fatalf("disposition = %v, nacks = %d, requeue = %v", got, ack.nacks, ack.requeue)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("requeued after %v, want at least 30ms", elapsed)
	}

	// Shutdown cuts the wait short and still hands the message back.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ack = &fakeAck{}
	start = time.Now()
	got = handleDelivery(ctx, amqp091.Delivery{Acknowledger: ack, Body: []byte(valid)}, failing, time.Hour)
	if got != requeued || ack.nacks != 1 || !ack.requeue {
		t.Fatalf("disposition = %v, nacks = %d, requeue = %v", got, ack.nacks, ack.requeue)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled wait took %v", elapsed)
	}
}

func TestHandleDelivery_AckErrorKeepsDisposition(t *testing.T) {
	valid := `{"message_id":"m1","type":"transaction.created","owner_id":"alice","transaction_id":3}`
	ack := &fakeAck{err: errors.New("channel closed")}
	got := handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack, Body: []byte(valid)},
		func(context.Context, *TransactionEvent) error { return nil }, 0)
	if got != acked || ack.acks != 1 {
		t.Fatalf("disposition = %v, acks = %d", got, ack.acks)
	}
}
