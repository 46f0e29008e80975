package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the cart, keyed by menu item id.
type CartItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (c CartItem) LineTotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Cart keeps insertion order for display only.
type Cart []CartItem

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (c Cart) Find(id int64) (CartItem, bool) {
	for _, it := range c {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	return append(Cart{}, c...)
}

type CustomerDetails struct {
	Name  string `json:"name"`
	Table string `json:"table"`
}

type StaffSession struct {
	Token    string
	Username string
}

// OrderConfirmation is what the success view shows after checkout.
type OrderConfirmation struct {
	OrderID     int64           `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status,omitempty"`
	Message     string          `json:"message,omitempty"`
	PlacedAt    time.Time       `json:"placed_at"`
}

// KitchenOrder is an order as listed for staff.
type KitchenOrder struct {
	OrderID      int64           `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	TableNumber  string          `json:"table_number"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Items        []KitchenItem   `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

type KitchenItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ActiveOrders drops terminal orders, keeping the backend's order.
func ActiveOrders(orders []KitchenOrder) []KitchenOrder {
	out := make([]KitchenOrder, 0, len(orders))
	for _, o := range orders {
		if o.Status.IsTerminal() {
			continue
		}
		out = append(out, o)
	}
	return out
}
