// Package storage is the durable key-value store behind the client's
// sessions. Values are opaque bytes (JSON in practice); each key is read and
// written independently.
package storage

import "context"

// Keys written by the client.
const (
	KeyCart      = "restaurant_cart"
	KeyCustomer  = "restaurant_customer"
	KeyLastOrder = "restaurant_last_order"
	KeyToken     = "staff_token"
	KeyStaffUser = "staff_user"
)

type Storage interface {
	// Get reports ok=false when the key was never written or was deleted.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
