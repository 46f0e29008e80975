// Package bootstrap opens everything a CLI mode needs from the loaded config.
package bootstrap

import (
	"context"
	"fmt"

	"restaurant-client/internal/api"
	"restaurant-client/internal/auth"
	"restaurant-client/internal/common/config"
	"restaurant-client/internal/common/db"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/menu"
	"restaurant-client/internal/order"
	"restaurant-client/internal/session"
	"restaurant-client/internal/storage"
	trackerrepo "restaurant-client/internal/tracker/repository"
	tracker "restaurant-client/internal/tracker/service"
)

type Deps struct {
	Config  config.App
	Logger  *logger.Logger
	API     *api.Client
	KV      storage.Storage
	Session *session.Store
	Auth    *auth.Store
	Menu    *menu.MenuService
	Orders  *order.OrderService
	Tracker *tracker.TrackerService

	conn *db.Conn
}

func Open(ctx context.Context, cfg config.App, lg *logger.Logger) (*Deps, error) {
	d := &Deps{Config: cfg, Logger: lg, API: api.New(cfg.Backend)}

	var trackRepo trackerrepo.TrackerRepoInterface
	switch cfg.Storage.Driver {
	case "memory":
		d.KV = storage.NewMemory()
		trackRepo = trackerrepo.NewMemoryRepo()
	default:
		conn, err := db.Open(ctx, cfg.Storage, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		d.conn = conn
		d.KV = storage.NewSQLStore(conn.DB, conn.Dialect)
		trackRepo = trackerrepo.NewTrackerRepo(conn.DB, conn.Dialect)
		lg.Debug("storage_opened", map[string]any{"driver": cfg.Storage.Driver})
	}

	sess, err := session.Load(ctx, d.KV, lg.With("session"))
	if err != nil {
		d.Close()
		return nil, err
	}
	authStore, err := auth.Load(ctx, d.KV, d.API, lg.With("auth"))
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Session = sess
	d.Auth = authStore
	d.Menu = menu.NewMenuService(d.API, lg.With("menu"))
	d.Orders = order.NewOrderService(d.API, sess, d.KV, lg.With("order"))
	d.Tracker = tracker.NewTrackerService(trackRepo)
	return d, nil
}

// DB is nil for the memory driver.
func (d *Deps) DB() *db.Conn { return d.conn }

func (d *Deps) Close() {
	if d.conn != nil {
		_ = d.conn.Close()
	}
}
