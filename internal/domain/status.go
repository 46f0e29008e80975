package domain

import "fmt"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCancelled OrderStatus = "cancelled"
)

var forward = map[OrderStatus]OrderStatus{
	StatusPending:   StatusAccepted,
	StatusAccepted:  StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusServed,
}

// Next returns the single status staff may move an order to.
// ok is false for terminal and unknown statuses.
func (s OrderStatus) Next() (OrderStatus, bool) {
	n, ok := forward[s]
	return n, ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusServed || s == StatusCancelled
}

func (s OrderStatus) Valid() bool {
	_, ok := forward[s]
	return ok || s.IsTerminal()
}

// ActionLabel is the button text for moving an order out of s.
func (s OrderStatus) ActionLabel() string {
	switch s {
	case StatusPending:
		return "Accept"
	case StatusAccepted:
		return "Cook"
	case StatusPreparing:
		return "Ready"
	case StatusReady:
		return "Serve"
	default:
		return ""
	}
}

func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", v)
	}
	return s, nil
}
