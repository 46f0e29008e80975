// Package session holds the customer's side of the client: who is ordering
// and what is in the cart. State lives in memory and is written through to
// durable storage on every change, so it survives restarts.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/domain"
	"restaurant-client/internal/storage"
)

var (
	ErrNoCustomer      = apperr.New(apperr.CodeValidation, "Please tell us your name and table first.")
	ErrInvalidQuantity = apperr.New(apperr.CodeValidation, "Quantity must be at least 1.")
	ErrItemUnavailable = apperr.New(apperr.CodeValidation, "This item is currently unavailable.")
	ErrInvalidCustomer = apperr.New(apperr.CodeValidation, "Name and table number are required.")
)

type Store struct {
	mu       sync.Mutex
	kv       storage.Storage
	lg       *logger.Logger
	cart     domain.Cart
	customer *domain.CustomerDetails
}

// Load rebuilds the store from kv. Absent or malformed entries start empty;
// only a failing storage backend is an error.
func Load(ctx context.Context, kv storage.Storage, lg *logger.Logger) (*Store, error) {
	s := &Store{kv: kv, lg: lg, cart: domain.Cart{}}

	raw, ok, err := kv.Get(ctx, storage.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if ok {
		var cart domain.Cart
		if err := json.Unmarshal(raw, &cart); err != nil || !validCart(cart) {
			lg.Warn("cart_state_discarded", err, map[string]any{"key": storage.KeyCart})
		} else if cart != nil {
			s.cart = cart
		}
	}

	raw, ok, err = kv.Get(ctx, storage.KeyCustomer)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if ok {
		var c domain.CustomerDetails
		if err := json.Unmarshal(raw, &c); err != nil || !validCustomer(c) {
			lg.Warn("customer_state_discarded", err, map[string]any{"key": storage.KeyCustomer})
		} else {
			s.customer = &c
		}
	}
	return s, nil
}

func (s *Store) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *Store) Customer() (domain.CustomerDetails, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customer == nil {
		return domain.CustomerDetails{}, false
	}
	return *s.customer, true
}

// RequireCustomer fails with ErrNoCustomer until identity has been captured.
func (s *Store) RequireCustomer() (domain.CustomerDetails, error) {
	c, ok := s.Customer()
	if !ok {
		return domain.CustomerDetails{}, ErrNoCustomer
	}
	return c, nil
}

func (s *Store) AddItem(ctx context.Context, item domain.MenuItem, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if !item.Available {
		return ErrItemUnavailable
	}
	line := domain.CartItem{ID: item.ID, Name: item.Name, Price: item.Price}
	return s.updateCart(ctx, func(c domain.Cart) (domain.Cart, error) {
		for _, it := range c {
			if it.ID == item.ID && it.Quantity > math.MaxInt-qty {
				return nil, ErrInvalidQuantity
			}
		}
		return AddItem(c, line, qty), nil
	})
}

func (s *Store) RemoveItem(ctx context.Context, id int64) error {
	return s.updateCart(ctx, func(c domain.Cart) (domain.Cart, error) { return RemoveItem(c, id), nil })
}

func (s *Store) SetQuantity(ctx context.Context, id int64, qty int) error {
	return s.updateCart(ctx, func(c domain.Cart) (domain.Cart, error) { return SetQuantity(c, id, qty), nil })
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.updateCart(ctx, func(domain.Cart) (domain.Cart, error) { return domain.Cart{}, nil })
}

func (s *Store) SetCustomerDetails(ctx context.Context, d domain.CustomerDetails) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Table = strings.TrimSpace(d.Table)
	if !validCustomer(d) {
		return ErrInvalidCustomer
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, storage.KeyCustomer, b); err != nil {
		return fmt.Errorf("persist customer: %w", err)
	}
	s.customer = &d
	return nil
}

func (s *Store) ClearCustomerDetails(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, storage.KeyCustomer); err != nil {
		return fmt.Errorf("persist customer: %w", err)
	}
	s.customer = nil
	return nil
}

// updateCart persists next before swapping it in, so a failed write keeps
// the previous cart.
func (s *Store) updateCart(ctx context.Context, fn func(domain.Cart) (domain.Cart, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.cart)
	if err != nil {
		return err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyCart, b); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	s.cart = next
	return nil
}

func validCustomer(c domain.CustomerDetails) bool {
	return strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.Table) != ""
}
