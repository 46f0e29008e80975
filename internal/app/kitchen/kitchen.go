// Package kitchen implements the staff CLI modes: login, logout, the
// long-running dashboard and its one-shot counterparts.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"restaurant-client/internal/api"
	"restaurant-client/internal/app/bootstrap"
	"restaurant-client/internal/common/httpx"
	"restaurant-client/internal/common/mq"
	"restaurant-client/internal/domain"
	"restaurant-client/internal/kitchen/handler"
	kitchensvc "restaurant-client/internal/kitchen/service"
	notificator "restaurant-client/internal/notificator/service"
)

func Login(ctx context.Context, d *bootstrap.Deps, out io.Writer, username, password string) error {
	if err := d.Auth.Login(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged in as %s.\n", d.Auth.Session().Username)
	return nil
}

func Logout(ctx context.Context, d *bootstrap.Deps, out io.Writer) error {
	if err := d.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

func newService(d *bootstrap.Deps, opts kitchensvc.Options) *kitchensvc.KitchenService {
	opts.Interval = d.Config.Kitchen.PollInterval
	opts.Observer = d.Tracker
	opts.Logger = d.Logger.With("kitchen")
	return kitchensvc.NewKitchenService(d.API, d.Auth, opts)
}

// Orders prints the active orders once.
func Orders(ctx context.Context, d *bootstrap.Deps, out io.Writer) error {
	if !d.Auth.IsAuthenticated() {
		return api.ErrNoToken
	}
	ks := newService(d, kitchensvc.Options{OnUnauthorized: expire(d)})
	if err := ks.Refresh(ctx); err != nil {
		return err
	}
	return Render(out, ks.Snapshot())
}

// Advance moves one order to its next status and prints the refreshed list.
func Advance(ctx context.Context, d *bootstrap.Deps, out io.Writer, orderID int64) error {
	if !d.Auth.IsAuthenticated() {
		return api.ErrNoToken
	}
	pub, closePub := publisher(d)
	defer closePub()

	ks := newService(d, kitchensvc.Options{Publisher: pub, OnUnauthorized: expire(d)})
	if err := ks.Refresh(ctx); err != nil {
		return err
	}
	ev, err := ks.Advance(ctx, orderID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Order #%d: %s -> %s\n", ev.OrderID, ev.OldStatus, ev.NewStatus)
	return Render(out, ks.Snapshot())
}

// Dashboard polls the backend and serves the local JSON view until ctx ends
// or the staff session is rejected, in which case the session is dropped.
func Dashboard(ctx context.Context, d *bootstrap.Deps, listen string) error {
	if !d.Auth.IsAuthenticated() {
		return api.ErrNoToken
	}
	if listen == "" {
		listen = d.Config.Kitchen.Listen
	}
	lg := d.Logger.With("kitchen-dashboard")

	pub, closePub := publisher(d)
	defer closePub()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var rejected expiry
	ks := newService(d, kitchensvc.Options{
		Publisher: pub,
		OnUnauthorized: func(err error) {
			rejected.trip(err, func(err error) {
				expire(d)(err)
				cancel()
			})
		},
	})

	h := handler.NewKitchenHandler(ks, d.Tracker, lg)
	srv := httpx.New(listen, handler.Router(h))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ks.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		ks.Stop()
		return nil
	})
	g.Go(func() error {
		lg.Info("service_started", map[string]any{"listen": listen, "user": d.Auth.Session().Username})
		return srv.Run(gctx)
	})

	err := g.Wait()
	if rerr := rejected.Err(); rerr != nil {
		return rerr
	}
	return err
}

// expiry records the first rejection reported by the poller or an HTTP
// handler goroutine.
type expiry struct {
	once sync.Once
	err  atomic.Pointer[error]
}

func (e *expiry) trip(err error, first func(error)) {
	e.once.Do(func() {
		e.err.Store(&err)
		first(err)
	})
}

func (e *expiry) Err() error {
	if p := e.err.Load(); p != nil {
		return *p
	}
	return nil
}

// expire drops the stored staff session after the backend rejected it.
func expire(d *bootstrap.Deps) func(error) {
	return func(err error) {
		if !errors.Is(err, api.ErrSessionExpired) && !errors.Is(err, api.ErrNoToken) {
			return
		}
		if lerr := d.Auth.Logout(context.Background()); lerr != nil {
			d.Logger.Error("staff_logout_failed", lerr, nil)
		}
	}
}

func publisher(d *bootstrap.Deps) (kitchensvc.Publisher, func()) {
	cfg := d.Config.Rabbit
	if !cfg.Enabled {
		return notificator.Noop{}, func() {}
	}
	client, err := mq.Dial(cfg)
	if err == nil {
		err = client.DeclareNotifications(cfg.Exchange, "")
	}
	if err != nil {
		d.Logger.Warn("notifications_disabled", err, map[string]any{"host": cfg.Host})
		client.Close()
		return notificator.Noop{}, func() {}
	}
	return notificator.NewPublisher(client, cfg.Exchange), client.Close
}

func Render(out io.Writer, s kitchensvc.Snapshot) error {
	if s.Err != nil && s.Loaded {
		fmt.Fprintf(out, "Showing orders from %s (refresh failed).\n", s.FetchedAt.Local().Format("15:04:05"))
	}
	if len(s.Orders) == 0 {
		fmt.Fprintln(out, "No active orders.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tTABLE\tCUSTOMER\tSTATUS\tITEMS\tPLACED\tNEXT")
	for _, o := range s.Orders {
		next := "-"
		if n, ok := o.Status.Next(); ok {
			next = fmt.Sprintf("%s (%s)", o.Status.ActionLabel(), n)
		}
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.OrderID, o.TableNumber, o.CustomerName, o.Status, items(o.Items),
			o.CreatedAt.Local().Format("15:04"), next)
	}
	return tw.Flush()
}

func items(its []domain.KitchenItem) string {
	parts := make([]string, 0, len(its))
	for _, it := range its {
		parts = append(parts, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	return strings.Join(parts, ", ")
}
