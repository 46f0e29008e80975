// Package service runs the kitchen dashboard: a scheduled poll of the
// backend's order list and the staff action that moves an order forward.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"restaurant-client/internal/api"
	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/domain"
	"restaurant-client/internal/tracker/models"
)

const DefaultInterval = 30 * time.Second

var (
	ErrAlreadyStarted   = errors.New("kitchen poller already started")
	ErrUnknownOrder     = apperr.New(apperr.CodeValidation, "Order is not on the dashboard.")
	ErrTerminalOrder    = apperr.New(apperr.CodeValidation, "This order is already complete.")
	ErrUpdateInProgress = apperr.New(apperr.CodeValidation, "This order is already being updated.")
)

type OrdersAPI interface {
	ListOrders(ctx context.Context, token string) ([]domain.KitchenOrder, error)
	UpdateOrderStatus(ctx context.Context, token string, orderID int64, status domain.OrderStatus) (domain.StatusUpdateResponse, error)
}

type SessionSource interface {
	Session() domain.StaffSession
}

type Observer interface {
	Observe(ctx context.Context, orders []domain.KitchenOrder) ([]models.OrderEvent, error)
}

type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev domain.StatusChangedEvent) error
}

// Options configure the poller. OnUnauthorized runs after any request fails
// for lack of a valid staff session.
type Options struct {
	Interval       time.Duration
	Observer       Observer
	Publisher      Publisher
	OnUnauthorized func(err error)
	Logger         *logger.Logger
}

// Snapshot is the last successful fetch plus the error of the latest attempt.
type Snapshot struct {
	Orders    []domain.KitchenOrder
	FetchedAt time.Time
	Loaded    bool
	Err       error
}

func (s Snapshot) Find(id int64) (domain.KitchenOrder, bool) {
	for _, o := range s.Orders {
		if o.OrderID == id {
			return o, true
		}
	}
	return domain.KitchenOrder{}, false
}

type KitchenServiceInterface interface {
	Start(ctx context.Context) error
	Stop()
	Refresh(ctx context.Context) error
	Snapshot() Snapshot
	Advance(ctx context.Context, orderID int64) (domain.StatusChangedEvent, error)
}

type KitchenService struct {
	api  OrdersAPI
	auth SessionSource
	opts Options
	lg   *logger.Logger
	now  func() time.Time

	mu   sync.RWMutex
	snap Snapshot

	fetchMu sync.Mutex

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	advMu     sync.Mutex
	advancing map[int64]struct{}
}

func NewKitchenService(ordersAPI OrdersAPI, auth SessionSource, opts Options) *KitchenService {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	lg := opts.Logger
	if lg == nil {
		lg = logger.New("kitchen")
	}
	return &KitchenService{
		api:       ordersAPI,
		auth:      auth,
		opts:      opts,
		lg:        lg,
		now:       time.Now,
		advancing: map[int64]struct{}{},
	}
}

func (ks *KitchenService) Snapshot() Snapshot {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	s := ks.snap
	s.Orders = append([]domain.KitchenOrder(nil), ks.snap.Orders...)
	return s
}

// Start fetches immediately and then every Interval until Stop or ctx ends.
func (ks *KitchenService) Start(ctx context.Context) error {
	ks.runMu.Lock()
	defer ks.runMu.Unlock()
	if ks.cancel != nil {
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	ks.cancel = cancel
	ks.done = make(chan struct{})
	go ks.loop(runCtx, ks.done)
	ks.lg.Info("kitchen_poller_started", map[string]any{"interval": ks.opts.Interval.String()})
	return nil
}

// Stop cancels the scheduled task and waits for an in-flight fetch to finish.
func (ks *KitchenService) Stop() {
	ks.runMu.Lock()
	defer ks.runMu.Unlock()
	if ks.cancel == nil {
		return
	}
	ks.cancel()
	<-ks.done
	ks.cancel = nil
	ks.done = nil
	ks.lg.Info("kitchen_poller_stopped", nil)
}

func (ks *KitchenService) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ks.tick(ctx)

	t := time.NewTicker(ks.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			ks.tick(ctx)
		}
	}
}

func (ks *KitchenService) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := ks.Refresh(ctx); err != nil && ctx.Err() == nil {
		ks.lg.Warn("kitchen_refresh_failed", err, nil)
	}
}

// Refresh replaces the snapshot with the backend's active orders. A failed
// fetch only records its error; the previous orders stay visible.
func (ks *KitchenService) Refresh(ctx context.Context) error {
	ks.fetchMu.Lock()
	defer ks.fetchMu.Unlock()

	token := ks.auth.Session().Token
	if token == "" {
		return ks.fetchFailed(api.ErrNoToken)
	}
	orders, err := ks.api.ListOrders(ctx, token)
	if err != nil {
		return ks.fetchFailed(err)
	}

	if ks.opts.Observer != nil {
		changed, err := ks.opts.Observer.Observe(ctx, orders)
		if err != nil {
			ks.lg.Warn("order_tracking_failed", err, nil)
		}
		for _, ev := range changed {
			ks.lg.Debug("order_status_observed", map[string]any{
				"order_id":   ev.OrderID,
				"old_status": ev.OldStatus,
				"new_status": ev.NewStatus,
			})
		}
	}

	active := domain.ActiveOrders(orders)
	ks.mu.Lock()
	ks.snap = Snapshot{Orders: active, FetchedAt: ks.now().UTC(), Loaded: true}
	ks.mu.Unlock()
	ks.lg.Debug("kitchen_orders_fetched", map[string]any{"total": len(orders), "active": len(active)})
	return nil
}

func (ks *KitchenService) fetchFailed(err error) error {
	ks.mu.Lock()
	ks.snap.Err = err
	ks.mu.Unlock()
	ks.unauthorized(err)
	return fmt.Errorf("fetch kitchen orders: %w", err)
}

func (ks *KitchenService) unauthorized(err error) {
	if ks.opts.OnUnauthorized != nil && apperr.CodeOf(err) == apperr.CodeAuthorization {
		ks.opts.OnUnauthorized(err)
	}
}

// Advance moves an order one step forward. The snapshot is not touched
// until the backend confirms; a refetch then shows the new status.
func (ks *KitchenService) Advance(ctx context.Context, orderID int64) (domain.StatusChangedEvent, error) {
	o, ok := ks.Snapshot().Find(orderID)
	if !ok {
		return domain.StatusChangedEvent{}, ErrUnknownOrder
	}
	next, ok := o.Status.Next()
	if !ok {
		return domain.StatusChangedEvent{}, ErrTerminalOrder
	}

	ks.advMu.Lock()
	if _, busy := ks.advancing[orderID]; busy {
		ks.advMu.Unlock()
		return domain.StatusChangedEvent{}, ErrUpdateInProgress
	}
	ks.advancing[orderID] = struct{}{}
	ks.advMu.Unlock()
	defer func() {
		ks.advMu.Lock()
		delete(ks.advancing, orderID)
		ks.advMu.Unlock()
	}()

	sess := ks.auth.Session()
	if sess.Token == "" {
		ks.unauthorized(api.ErrNoToken)
		return domain.StatusChangedEvent{}, api.ErrNoToken
	}
	resp, err := ks.api.UpdateOrderStatus(ctx, sess.Token, orderID, next)
	if err != nil {
		ks.unauthorized(err)
		ks.lg.Error("order_status_update_failed", err, map[string]any{
			"order_id": orderID,
			"from":     o.Status,
			"to":       next,
		})
		return domain.StatusChangedEvent{}, fmt.Errorf("advance order %d: %w", orderID, err)
	}
	if resp.NewStatus != "" {
		next = resp.NewStatus
	}

	ev := domain.StatusChangedEvent{
		OrderID:   orderID,
		OldStatus: o.Status,
		NewStatus: next,
		ChangedBy: sess.Username,
		Timestamp: ks.now().UTC(),
	}
	ks.lg.Info("order_status_updated", map[string]any{
		"order_id":   orderID,
		"old_status": ev.OldStatus,
		"new_status": ev.NewStatus,
		"changed_by": ev.ChangedBy,
	})
	if ks.opts.Publisher != nil {
		if err := ks.opts.Publisher.PublishStatusChanged(ctx, ev); err != nil {
			ks.lg.Warn("status_notification_failed", err, map[string]any{"order_id": orderID})
		}
	}
	if err := ks.Refresh(ctx); err != nil {
		ks.lg.Warn("kitchen_refresh_failed", err, map[string]any{"order_id": orderID})
	}
	return ev, nil
}
