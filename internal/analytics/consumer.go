package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"orderflow/pkg/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
)

// envelope carries the fields shared by every event on the bus. Analytics
// does not care about the payload, only about counting events by type.
type envelope struct {
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
}

// Consumer aggregates event counts per day and event type.
type Consumer struct {
	DB *sql.DB
}

// NewConsumer creates a new analytics consumer.
func NewConsumer(db *sql.DB) *Consumer {
	return &Consumer{DB: db}
}

// HandleMessage counts an event towards the daily metrics, once per event_id.
func (c *Consumer) HandleMessage(delivery amqp.Delivery) error {
	var event envelope
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		log.Printf("[Analytics] Failed to unmarshal event: %v correlation_id=%s", err, delivery.CorrelationId)
		return fmt.Errorf("%w: %v", rabbitmq.ErrUnprocessable, err)
	}
	if event.EventID == "" {
		log.Printf("[Analytics] Event without event_id, discarding correlation_id=%s", delivery.CorrelationId)
		return fmt.Errorf("%w: missing event_id", rabbitmq.ErrUnprocessable)
	}

	log.Printf("[Analytics] Processing event: type=%s event_id=%s correlation_id=%s",
		event.EventType, event.EventID, event.CorrelationID)

	// Idempotency check
	var exists bool
	err := c.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM idempotency_keys WHERE event_id = $1)", event.EventID).Scan(&exists)
	if err != nil {
		log.Printf("[Analytics] Error checking idempotency: %v correlation_id=%s", err, event.CorrelationID)
		return err
	}
	if exists {
		log.Printf("[Analytics] Duplicate event ignored: event_id=%s correlation_id=%s", event.EventID, event.CorrelationID)
		return nil
	}

	// Aggregate metrics — upsert count by date and event type
	metricDate := event.Timestamp.Format("2006-01-02")
	_, err = c.DB.Exec(
		`INSERT INTO analytics_metrics (metric_date, event_type, count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (metric_date, event_type)
		 DO UPDATE SET count = analytics_metrics.count + 1`,
		metricDate, event.EventType,
	)
	if err != nil {
		log.Printf("[Analytics] Error upserting metrics: %v correlation_id=%s", err, event.CorrelationID)
		return err
	}

	// Record idempotency key
	_, _ = c.DB.Exec("INSERT INTO idempotency_keys (event_id) VALUES ($1) ON CONFLICT DO NOTHING", event.EventID)

	log.Printf("[Analytics] Metrics updated: date=%s type=%s correlation_id=%s",
		metricDate, event.EventType, event.CorrelationID)

	return nil
}
