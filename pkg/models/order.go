package models

import (
	"encoding/json"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is an order placed by a registry user. Items are carried as opaque
// JSON records; the order service stores and returns them without
// interpreting their contents.
type Order struct {
	ID        string            `json:"id" db:"id"`
	UserID    string            `json:"user_id" db:"user_id"`
	Items     []json.RawMessage `json:"items" db:"items"`
	Total     float64           `json:"total" db:"total"`
	Status    OrderStatus       `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// CreateOrderRequest is the request body for placing an order.
type CreateOrderRequest struct {
	UserID string            `json:"user_id" binding:"required" example:"8b7f3c1e-0a52-4f6d-9f3a-2e8a1b5c4d6e"`
	Items  []json.RawMessage `json:"items" binding:"required"`
	Total  float64           `json:"total" binding:"gte=0" example:"150"`
}
