package models

import "time"

// EventType is the routing key of a domain event on the topic exchange.
type EventType string

const (
	// Produced by the registry service, consumed by the order service.
	EventUserCreated EventType = "user.created"
	EventUserUpdated EventType = "user.updated"

	// Produced by the order service.
	EventOrderCreated   EventType = "order.created"
	EventOrderCancelled EventType = "order.cancelled"
)

// UserEvent is a registry-change event carrying the user's full snapshot.
// Consumers apply the snapshot with a plain overwrite, so redelivering the
// same event is harmless. Event types outside the constants above may show
// up on the wire; consumers ignore them rather than fail.
type UserEvent struct {
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
	EventType     EventType `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	Data          User      `json:"data"`
}

// OrderEvent is an order-lifecycle event carrying the full order.
type OrderEvent struct {
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
	EventType     EventType `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	Data          Order     `json:"data"`
}
