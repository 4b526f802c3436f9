package analytics

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"orderflow/pkg/models"
	"orderflow/pkg/rabbitmq"

	"github.com/DATA-DOG/go-sqlmock"
	amqp "github.com/rabbitmq/amqp091-go"
)

func makeDelivery(t *testing.T, event any, correlationID string) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return amqp.Delivery{
		Body:          body,
		CorrelationId: correlationID,
	}
}

func newConsumer(t *testing.T) (*Consumer, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewConsumer(db), mock, func() { db.Close() }
}

func TestHandleMessage_UserEvent(t *testing.T) {
	consumer, mock, done := newConsumer(t)
	defer done()

	now := time.Now()
	event := models.UserEvent{
		EventID:       "evt-a001",
		CorrelationID: "corr-a001",
		EventType:     models.EventUserCreated,
		Timestamp:     now,
		Data: models.User{
			ID:    "user-a001",
			Email: "analytics@example.com",
			Name:  "Analytics User",
		},
	}

	metricDate := now.Format("2006-01-02")

	// Idempotency check — not a duplicate
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("evt-a001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	// Metrics upsert
	mock.ExpectExec("INSERT INTO analytics_metrics").
		WithArgs(metricDate, "user.created").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Idempotency key insert
	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("evt-a001").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := consumer.HandleMessage(makeDelivery(t, event, event.CorrelationID)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleMessage_OrderEvent(t *testing.T) {
	consumer, mock, done := newConsumer(t)
	defer done()

	now := time.Now()
	event := models.OrderEvent{
		EventID:       "evt-a010",
		CorrelationID: "corr-a010",
		EventType:     models.EventOrderCancelled,
		Timestamp:     now,
		Data: models.Order{
			ID:     "order-a010",
			UserID: "user-a001",
			Status: models.OrderStatusCancelled,
		},
	}

	metricDate := now.Format("2006-01-02")

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("evt-a010").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO analytics_metrics").
		WithArgs(metricDate, "order.cancelled").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("evt-a010").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := consumer.HandleMessage(makeDelivery(t, event, event.CorrelationID)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleMessage_DuplicateEvent(t *testing.T) {
	consumer, mock, done := newConsumer(t)
	defer done()

	event := models.UserEvent{
		EventID:       "evt-a-dup",
		CorrelationID: "corr-a-dup",
		EventType:     models.EventUserUpdated,
		Timestamp:     time.Now(),
		Data: models.User{
			ID:    "user-a002",
			Email: "dup@example.com",
			Name:  "Dup User",
		},
	}

	// Idempotency check — IS a duplicate, no further writes expected
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("evt-a-dup").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	if err := consumer.HandleMessage(makeDelivery(t, event, event.CorrelationID)); err != nil {
		t.Fatalf("expected no error for duplicate, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	consumer, _, done := newConsumer(t)
	defer done()

	delivery := amqp.Delivery{
		Body:          []byte("{invalid json"),
		CorrelationId: "corr-bad",
	}

	err := consumer.HandleMessage(delivery)
	if !errors.Is(err, rabbitmq.ErrUnprocessable) {
		t.Fatalf("expected unprocessable error for invalid JSON, got %v", err)
	}
}

func TestHandleMessage_MissingEventID(t *testing.T) {
	consumer, _, done := newConsumer(t)
	defer done()

	event := models.UserEvent{
		CorrelationID: "corr-no-id",
		EventType:     models.EventUserCreated,
		Timestamp:     time.Now(),
	}

	err := consumer.HandleMessage(makeDelivery(t, event, event.CorrelationID))
	if !errors.Is(err, rabbitmq.ErrUnprocessable) {
		t.Fatalf("expected unprocessable error for missing event_id, got %v", err)
	}
}

func TestHandleMessage_IdempotencyCheckFailureRequeues(t *testing.T) {
	consumer, mock, done := newConsumer(t)
	defer done()

	event := models.UserEvent{
		EventID:       "evt-a-err",
		CorrelationID: "corr-a-err",
		EventType:     models.EventUserCreated,
		Timestamp:     time.Now(),
	}

	dbErr := errors.New("connection reset")
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("evt-a-err").
		WillReturnError(dbErr)

	err := consumer.HandleMessage(makeDelivery(t, event, event.CorrelationID))
	if err == nil {
		t.Fatal("expected error when idempotency check fails")
	}
	if errors.Is(err, rabbitmq.ErrUnprocessable) {
		t.Fatal("transient database errors must not be marked unprocessable")
	}
}
