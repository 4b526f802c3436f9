package orders

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"orderflow/pkg/models"
)

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(routingKey string, body []byte, correlationID string) error
}

// Service owns the order lifecycle: created is entered only through Create
// (after the caller's validation verdict), cancelled only through Cancel,
// and nothing ever leaves cancelled. Lifecycle events are published after
// the state change is durable; a publish failure is logged and swallowed,
// it never rolls back the write.
type Service struct {
	Store     *Store
	Publisher EventPublisher
}

// NewService creates an order Service.
func NewService(store *Store, pub EventPublisher) *Service {
	return &Service{Store: store, Publisher: pub}
}

// Create persists a new order in the created state and emits order.created.
func (s *Service) Create(userID string, items []json.RawMessage, total float64, correlationID string) (models.Order, error) {
	now := time.Now()
	order := models.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     items,
		Total:     total,
		Status:    models.OrderStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Save(order); err != nil {
		return models.Order{}, err
	}

	s.publish(models.EventOrderCreated, order, correlationID)
	log.Printf("[Orders] Order created: id=%s user_id=%s total=%.2f correlation_id=%s",
		order.ID, order.UserID, order.Total, correlationID)
	return order, nil
}

// Cancel transitions an order from created to cancelled and emits
// order.cancelled. Cancelling a missing order returns ErrOrderNotFound;
// cancelling twice returns ErrAlreadyCancelled. Neither publishes anything.
func (s *Service) Cancel(orderID, correlationID string) (models.Order, error) {
	order, err := s.Store.UpdateStatus(orderID, models.OrderStatusCreated, models.OrderStatusCancelled)
	if err != nil {
		return models.Order{}, err
	}

	s.publish(models.EventOrderCancelled, order, correlationID)
	log.Printf("[Orders] Order cancelled: id=%s correlation_id=%s", order.ID, correlationID)
	return order, nil
}

// Get returns one order.
func (s *Service) Get(orderID string) (models.Order, error) {
	return s.Store.Load(orderID)
}

// List returns all orders, newest first.
func (s *Service) List() ([]models.Order, error) {
	return s.Store.List()
}

func (s *Service) publish(eventType models.EventType, order models.Order, correlationID string) {
	event := models.OrderEvent{
		EventID:       uuid.New().String(),
		CorrelationID: correlationID,
		EventType:     eventType,
		Timestamp:     time.Now(),
		Data:          order,
	}

	body, _ := json.Marshal(event)
	if err := s.Publisher.Publish(string(eventType), body, correlationID); err != nil {
		// The state change is already durable; downstream consumers will
		// miss this event but the order itself is correct.
		log.Printf("[Orders] Error publishing %s: %v correlation_id=%s", eventType, err, correlationID)
	}
}
