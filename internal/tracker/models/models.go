package models

import (
	"time"

	"restaurant-client/internal/domain"
)

// OrderEvent is one observed status change. OldStatus is empty the first
// time the dashboard sees an order.
type OrderEvent struct {
	OrderID    int64              `json:"order_id"`
	OldStatus  domain.OrderStatus `json:"old_status,omitempty"`
	NewStatus  domain.OrderStatus `json:"new_status"`
	ObservedAt time.Time          `json:"observed_at"`
}

// OrderView is the latest status seen for an order.
type OrderView struct {
	OrderID      int64              `json:"order_id"`
	Status       domain.OrderStatus `json:"status"`
	CustomerName string             `json:"customer_name"`
	TableNumber  string             `json:"table_number"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
