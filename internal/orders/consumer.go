package orders

import (
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"orderflow/pkg/metrics"
	"orderflow/pkg/models"
	"orderflow/pkg/rabbitmq"
)

// Consumer applies registry-change events to the user cache. It runs in the
// same process as the request handlers and shares the cache with the
// validator.
type Consumer struct {
	Cache *UserCache
}

// NewConsumer creates a consumer writing into cache.
func NewConsumer(cache *UserCache) *Consumer {
	return &Consumer{Cache: cache}
}

// HandleMessage processes one registry-change delivery.
//
// A payload that does not decode, or decodes without a user id, is a poison
// message: it is counted and dead-lettered, never requeued. Event kinds we
// do not understand are acked and skipped so new registry event types do
// not wedge the queue. Applying a known event twice is harmless (the cache
// overwrites), so at-least-once redelivery needs no dedupe here.
func (c *Consumer) HandleMessage(delivery amqp.Delivery) error {
	var event models.UserEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		metrics.RegistryEventsDiscarded.Inc()
		log.Printf("[Orders] Failed to unmarshal registry event: %v correlation_id=%s", err, delivery.CorrelationId)
		return fmt.Errorf("%w: %v", rabbitmq.ErrUnprocessable, err)
	}

	switch event.EventType {
	case models.EventUserCreated, models.EventUserUpdated:
		if event.Data.ID == "" {
			metrics.RegistryEventsDiscarded.Inc()
			log.Printf("[Orders] Registry event without user id: event_id=%s correlation_id=%s",
				event.EventID, event.CorrelationID)
			return fmt.Errorf("%w: event %s carries no user id", rabbitmq.ErrUnprocessable, event.EventID)
		}
		c.Cache.Apply(event.Data)
		metrics.RegistryEventsApplied.Inc()
		log.Printf("[Orders] Cached user snapshot: type=%s user_id=%s event_id=%s correlation_id=%s",
			event.EventType, event.Data.ID, event.EventID, event.CorrelationID)
	default:
		metrics.RegistryEventsIgnored.Inc()
		log.Printf("[Orders] Ignoring unrecognized event type %q: event_id=%s correlation_id=%s",
			event.EventType, event.EventID, event.CorrelationID)
	}

	return nil
}
