// Package customer implements the guest-facing CLI modes: identification,
// menu browsing, cart editing and checkout.
package customer

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"restaurant-client/internal/domain"
	"restaurant-client/internal/menu"
	"restaurant-client/internal/order"
	"restaurant-client/internal/session"
)

type Commands struct {
	Session *session.Store
	Menu    menu.MenuServiceInterface
	Orders  order.OrderServiceInterface
	Out     io.Writer
}

func Money(d decimal.Decimal) string { return "₹" + d.StringFixed(2) }

func (c *Commands) Identify(ctx context.Context, name, table string) error {
	if err := c.Session.SetCustomerDetails(ctx, domain.CustomerDetails{Name: name, Table: table}); err != nil {
		return err
	}
	d, _ := c.Session.Customer()
	fmt.Fprintf(c.Out, "Welcome, %s! You are seated at table %s.\n", d.Name, d.Table)
	return nil
}

func (c *Commands) Forget(ctx context.Context) error {
	if err := c.Session.ClearCustomerDetails(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "Customer details cleared.")
	return nil
}

func (c *Commands) ShowMenu(ctx context.Context) error {
	if _, err := c.Session.RequireCustomer(); err != nil {
		return err
	}
	m, err := c.Menu.Fetch(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%s\n", m.Name)
	if m.Address != "" {
		fmt.Fprintf(c.Out, "%s\n", m.Address)
	}
	for _, cat := range m.Categories {
		fmt.Fprintf(c.Out, "\n== %s ==\n", cat.Name)
		tw := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tITEM\tPRICE\tRATING\t\t")
		for _, it := range cat.Items {
			veg := ""
			if it.IsVeg {
				veg = "veg"
			}
			avail := ""
			if !it.Available {
				avail = "unavailable"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", it.ID, it.Name, Money(it.Price), it.Rating.StringFixed(1), veg, avail)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Commands) Add(ctx context.Context, itemID int64, qty int) error {
	if _, err := c.Session.RequireCustomer(); err != nil {
		return err
	}
	if qty < 1 {
		return session.ErrInvalidQuantity
	}
	it, err := c.Menu.Lookup(ctx, itemID)
	if err != nil {
		return err
	}
	if err := c.Session.AddItem(ctx, it, qty); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Added %d x %s (%s).\n", qty, it.Name, Money(it.Price.Mul(decimal.NewFromInt(int64(qty)))))
	return c.ShowCart()
}

func (c *Commands) Remove(ctx context.Context, itemID int64) error {
	if err := c.Session.RemoveItem(ctx, itemID); err != nil {
		return err
	}
	return c.ShowCart()
}

func (c *Commands) SetQuantity(ctx context.Context, itemID int64, qty int) error {
	if err := c.Session.SetQuantity(ctx, itemID, qty); err != nil {
		return err
	}
	return c.ShowCart()
}

func (c *Commands) ClearCart(ctx context.Context) error {
	if err := c.Session.ClearCart(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "Your cart is empty.")
	return nil
}

func (c *Commands) ShowCart() error {
	cart := c.Session.Cart()
	if len(cart) == 0 {
		fmt.Fprintln(c.Out, "Your cart is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tQTY\tPRICE\tLINE")
	for _, it := range cart {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", it.ID, it.Name, it.Quantity, Money(it.Price), Money(it.LineTotal()))
	}
	fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", Money(cart.Total()))
	return tw.Flush()
}

func (c *Commands) Checkout(ctx context.Context) error {
	conf, err := c.Orders.Submit(ctx)
	if err != nil {
		return err
	}
	printConfirmation(c.Out, conf)
	return nil
}

func (c *Commands) LastOrder(ctx context.Context) error {
	conf, ok, err := c.Orders.LastConfirmation(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.Out, "No order placed yet.")
		return nil
	}
	printConfirmation(c.Out, conf)
	return nil
}

func printConfirmation(w io.Writer, conf domain.OrderConfirmation) {
	fmt.Fprintln(w, "Order placed!")
	fmt.Fprintln(w, "Thank you for your order. The kitchen has received it.")
	fmt.Fprintf(w, "Order ID: #%d\n", conf.OrderID)
	fmt.Fprintf(w, "Total: %s\n", Money(conf.TotalAmount))
}
