package orders

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orderflow/pkg/models"
)

var (
	// ErrOrderNotFound means no order exists with the given id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrAlreadyCancelled means the order exists but has already left the
	// created state; cancelling it again is rejected, not repeated.
	ErrAlreadyCancelled = errors.New("order already cancelled")
)

// Store persists orders in PostgreSQL.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

const orderColumns = "id, user_id, items, total, status, created_at, updated_at"

func scanOrder(row interface{ Scan(dest ...any) error }) (models.Order, error) {
	var order models.Order
	var itemsRaw []byte
	err := row.Scan(&order.ID, &order.UserID, &itemsRaw, &order.Total, &order.Status,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return order, err
	}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &order.Items); err != nil {
			return order, fmt.Errorf("decoding order items: %w", err)
		}
	}
	return order, nil
}

// Save inserts a new order.
func (s *Store) Save(order models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encoding order items: %w", err)
	}

	_, err = s.DB.Exec(
		"INSERT INTO orders (id, user_id, items, total, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		order.ID, order.UserID, items, order.Total, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	return err
}

// Load fetches one order by id.
func (s *Store) Load(id string) (models.Order, error) {
	row := s.DB.QueryRow("SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return order, ErrOrderNotFound
	}
	return order, err
}

// UpdateStatus transitions an order from one status to another and returns
// the updated row. The WHERE clause guards the transition so a concurrent
// or repeated cancel can never apply twice.
func (s *Store) UpdateStatus(id string, from, to models.OrderStatus) (models.Order, error) {
	row := s.DB.QueryRow(
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4 RETURNING "+orderColumns,
		to, time.Now(), id, from,
	)
	order, err := scanOrder(row)
	if err != sql.ErrNoRows {
		return order, err
	}

	// Nothing matched: either the order is missing or it already moved on.
	switch _, lookupErr := s.Load(id); {
	case lookupErr == nil:
		return models.Order{}, ErrAlreadyCancelled
	case errors.Is(lookupErr, ErrOrderNotFound):
		return models.Order{}, ErrOrderNotFound
	default:
		return models.Order{}, lookupErr
	}
}

// List returns all orders, newest first.
func (s *Store) List() ([]models.Order, error) {
	rows, err := s.DB.Query("SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
