// Package order turns the customer's cart into a backend order.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"restaurant-client/internal/api"
	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/domain"
	"restaurant-client/internal/storage"
)

var (
	ErrSubmitInProgress = apperr.New(apperr.CodeValidation, "Your order is already being placed.")
	ErrEmptyCart        = apperr.New(apperr.CodeValidation, "Your cart is empty.")
	ErrMissingCustomer  = apperr.New(apperr.CodeValidation, "Please tell us your name and table first.")
)

const failedMessage = "Failed to place order. Please try again."

type Creator interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error)
}

// Session is the slice of the customer session the submitter needs.
type Session interface {
	Cart() domain.Cart
	Customer() (domain.CustomerDetails, bool)
	ClearCart(ctx context.Context) error
}

type OrderServiceInterface interface {
	Submit(ctx context.Context) (domain.OrderConfirmation, error)
	LastConfirmation(ctx context.Context) (domain.OrderConfirmation, bool, error)
}

type OrderService struct {
	api      Creator
	sess     Session
	kv       storage.Storage
	lg       *logger.Logger
	now      func() time.Time
	inFlight atomic.Bool
}

func NewOrderService(c Creator, sess Session, kv storage.Storage, lg *logger.Logger) *OrderService {
	return &OrderService{api: c, sess: sess, kv: kv, lg: lg, now: time.Now}
}

func (s *OrderService) Submit(ctx context.Context) (domain.OrderConfirmation, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.OrderConfirmation{}, ErrSubmitInProgress
	}
	defer s.inFlight.Store(false)

	cart := s.sess.Cart()
	if len(cart) == 0 {
		return domain.OrderConfirmation{}, ErrEmptyCart
	}
	customer, ok := s.sess.Customer()
	if !ok {
		return domain.OrderConfirmation{}, ErrMissingCustomer
	}

	req := domain.NewCreateOrderRequest(customer, cart)
	resp, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		s.lg.Error("order_submit_failed", err, map[string]any{
			"table": customer.Table,
			"lines": len(req.Items),
		})
		return domain.OrderConfirmation{}, submitError(err)
	}

	conf := domain.OrderConfirmation{
		OrderID:     resp.OrderID,
		TotalAmount: resp.TotalAmount,
		Status:      resp.Status,
		Message:     resp.Message,
		PlacedAt:    s.now().UTC(),
	}
	if conf.Status == "" {
		conf.Status = domain.StatusPending
	}
	s.lg.Info("order_placed", map[string]any{
		"order_id": conf.OrderID,
		"total":    conf.TotalAmount.StringFixed(2),
		"table":    customer.Table,
	})

	// The order exists on the backend from here on; local bookkeeping
	// failures are logged and do not turn the submit into an error.
	if err := s.sess.ClearCart(ctx); err != nil {
		s.lg.Error("cart_clear_failed", err, map[string]any{"order_id": conf.OrderID})
	}
	if err := s.saveConfirmation(ctx, conf); err != nil {
		s.lg.Error("last_order_save_failed", err, map[string]any{"order_id": conf.OrderID})
	}
	return conf, nil
}

func (s *OrderService) LastConfirmation(ctx context.Context) (domain.OrderConfirmation, bool, error) {
	raw, ok, err := s.kv.Get(ctx, storage.KeyLastOrder)
	if err != nil {
		return domain.OrderConfirmation{}, false, fmt.Errorf("load last order: %w", err)
	}
	if !ok {
		return domain.OrderConfirmation{}, false, nil
	}
	var conf domain.OrderConfirmation
	if err := json.Unmarshal(raw, &conf); err != nil {
		s.lg.Warn("last_order_discarded", err, map[string]any{"key": storage.KeyLastOrder})
		return domain.OrderConfirmation{}, false, nil
	}
	return conf, true, nil
}

func (s *OrderService) saveConfirmation(ctx context.Context, conf domain.OrderConfirmation) error {
	b, err := json.Marshal(conf)
	if err != nil {
		return fmt.Errorf("encode confirmation: %w", err)
	}
	return s.kv.Set(ctx, storage.KeyLastOrder, b)
}

// submitError keeps the backend's own wording when it sent one.
func submitError(err error) error {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		code = apperr.CodeBusiness
	}
	if msg, ok := api.ServerMessage(err); ok {
		return apperr.Wrap(code, msg, err)
	}
	return apperr.Wrap(code, failedMessage, err)
}
