package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderItem struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName string            `json:"customer_name"`
	TableNumber  string            `json:"table_number"`
	Items        []CreateOrderItem `json:"items"`
}

type CreateOrderResponse struct {
	OrderID     int64           `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status,omitempty"`
	Message     string          `json:"message,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	Items       []KitchenItem   `json:"items,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}

type StatusUpdateResponse struct {
	OrderID   int64       `json:"order_id"`
	NewStatus OrderStatus `json:"new_status"`
	Message   string      `json:"message,omitempty"`
}

// ErrorBody is the backend's error payload.
type ErrorBody struct {
	Error string `json:"error"`
}

// NewCreateOrderRequest maps cart lines to the order payload.
func NewCreateOrderRequest(c CustomerDetails, cart Cart) CreateOrderRequest {
	items := make([]CreateOrderItem, 0, len(cart))
	for _, it := range cart {
		items = append(items, CreateOrderItem{MenuItemID: it.ID, Quantity: it.Quantity})
	}
	return CreateOrderRequest{
		CustomerName: c.Name,
		TableNumber:  c.Table,
		Items:        items,
	}
}
