package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"restaurant-client/internal/app/bootstrap"
	"restaurant-client/internal/app/check"
	"restaurant-client/internal/app/customer"
	"restaurant-client/internal/app/kitchen"
	"restaurant-client/internal/app/notify"
	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/config"
	"restaurant-client/internal/common/logger"
)

const modes = "identify | forget | menu | add | remove | set-qty | cart | clear-cart | checkout | last-order | " +
	"login | logout | kitchen-dashboard | orders | advance | notification-subscriber | check"

type flags struct {
	mode     string
	config   string
	name     string
	table    string
	item     int64
	qty      int
	order    int64
	username string
	password string
	listen   string
}

func main() {
	var f flags
	flag.StringVar(&f.mode, "mode", "", modes)
	flag.StringVar(&f.config, "config", "", "path to YAML config (default: config.yaml in the working directory)")
	flag.StringVar(&f.name, "name", "", "identify: customer name")
	flag.StringVar(&f.table, "table", "", "identify: table number")
	flag.Int64Var(&f.item, "item", 0, "add/remove/set-qty: menu item id")
	flag.IntVar(&f.qty, "qty", 1, "add/set-qty: quantity")
	flag.Int64Var(&f.order, "order", 0, "advance: order id")
	flag.StringVar(&f.username, "username", "", "login: staff username")
	flag.StringVar(&f.password, "password", "", "login: staff password (or RESTAURANT_STAFF_PASSWORD)")
	flag.StringVar(&f.listen, "listen", "", "kitchen-dashboard: local listen address")
	flag.Parse()

	if f.mode == "" {
		fmt.Fprintln(os.Stderr, "--mode is required: "+modes)
		os.Exit(2)
	}

	cfgPath := f.config
	if cfgPath == "" {
		p, err := config.FindConfig()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lg := logger.NewWithWriter("restaurant-client", os.Stderr, cfg.Log.Level)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, f, cfg, lg); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, usage.Error())
			os.Exit(2)
		}
		lg.Debug("command_failed", map[string]any{"mode": f.mode, "cause": err.Error()})
		fmt.Fprintln(os.Stderr, apperr.UserMessage(err))
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func run(ctx context.Context, f flags, cfg config.App, lg *logger.Logger) error {
	switch f.mode {
	case "check":
		return check.Run(ctx, cfg, lg, os.Stdout)
	case "notification-subscriber":
		lg.Info("service_started", map[string]any{"mode": f.mode, "queue": cfg.Rabbit.Queue})
		return notify.Run(ctx, cfg.Rabbit, lg)
	}

	d, err := bootstrap.Open(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer d.Close()

	c := &customer.Commands{Session: d.Session, Menu: d.Menu, Orders: d.Orders, Out: os.Stdout}
	switch f.mode {
	case "identify":
		return c.Identify(ctx, f.name, f.table)
	case "forget":
		return c.Forget(ctx)
	case "menu":
		return c.ShowMenu(ctx)
	case "add":
		if f.item <= 0 {
			return usageError("--item is required for add")
		}
		return c.Add(ctx, f.item, f.qty)
	case "remove":
		if f.item <= 0 {
			return usageError("--item is required for remove")
		}
		return c.Remove(ctx, f.item)
	case "set-qty":
		if f.item <= 0 {
			return usageError("--item is required for set-qty")
		}
		return c.SetQuantity(ctx, f.item, f.qty)
	case "cart":
		return c.ShowCart()
	case "clear-cart":
		return c.ClearCart(ctx)
	case "checkout":
		return c.Checkout(ctx)
	case "last-order":
		return c.LastOrder(ctx)
	case "login":
		password := f.password
		if password == "" {
			password = os.Getenv("RESTAURANT_STAFF_PASSWORD")
		}
		return kitchen.Login(ctx, d, os.Stdout, f.username, password)
	case "logout":
		return kitchen.Logout(ctx, d, os.Stdout)
	case "orders":
		return kitchen.Orders(ctx, d, os.Stdout)
	case "advance":
		if f.order <= 0 {
			return usageError("--order is required for advance")
		}
		return kitchen.Advance(ctx, d, os.Stdout, f.order)
	case "kitchen-dashboard":
		return kitchen.Dashboard(ctx, d, f.listen)
	default:
		return usageError("unknown --mode " + f.mode + ": " + modes)
	}
}
