package domain

import "time"

// StatusChangedEvent is published after staff move an order forward.
type StatusChangedEvent struct {
	OrderID   int64       `json:"order_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	ChangedBy string      `json:"changed_by"`
	Timestamp time.Time   `json:"timestamp"`
}
