// Package api is the typed client for the restaurant backend's REST endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/config"
	"restaurant-client/internal/domain"
)

type Client struct {
	http   *resty.Client
	scheme string
}

func New(cfg config.Backend) *Client {
	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "Token"
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	return &Client{http: rc, scheme: scheme}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetError(&domain.ErrorBody{})
}

func (c *Client) authed(ctx context.Context, token string) (*resty.Request, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}
	return c.request(ctx).SetHeader("Authorization", c.scheme+" "+token), nil
}

// Menu fetches GET /api/menu/.
func (c *Client) Menu(ctx context.Context) (domain.Menu, error) {
	var out domain.Menu
	resp, err := c.request(ctx).SetResult(&out).Get("/api/menu/")
	if err := classify("fetch menu", resp, err, false); err != nil {
		return domain.Menu{}, err
	}
	return out, nil
}

// CreateOrder posts POST /api/order/.
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error) {
	var out domain.CreateOrderResponse
	resp, err := c.request(ctx).SetBody(req).SetResult(&out).Post("/api/order/")
	if err := classify("create order", resp, err, false); err != nil {
		return domain.CreateOrderResponse{}, err
	}
	return out, nil
}

// StaffLogin posts POST /api/staff/login/.
func (c *Client) StaffLogin(ctx context.Context, username, password string) (domain.StaffSession, error) {
	var out domain.LoginResponse
	resp, err := c.request(ctx).
		SetBody(domain.LoginRequest{Username: username, Password: password}).
		SetResult(&out).
		Post("/api/staff/login/")
	if err != nil {
		return domain.StaffSession{}, classify("staff login", resp, err, false)
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return domain.StaffSession{}, apperr.Wrap(apperr.CodeAuthentication, ErrInvalidCredentials.Message, serverError(resp))
	case http.StatusForbidden:
		return domain.StaffSession{}, apperr.Wrap(apperr.CodeAuthentication, ErrNotStaff.Message, serverError(resp))
	}
	if err := classify("staff login", resp, nil, false); err != nil {
		return domain.StaffSession{}, err
	}
	if out.Token == "" {
		return domain.StaffSession{}, apperr.New(apperr.CodeInternal, "Login response did not include a token.")
	}
	if out.Username == "" {
		out.Username = username
	}
	return domain.StaffSession{Token: out.Token, Username: out.Username}, nil
}

// ListOrders fetches GET /api/orders/ as staff.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.KitchenOrder, error) {
	req, err := c.authed(ctx, token)
	if err != nil {
		return nil, err
	}
	var out []domain.KitchenOrder
	resp, err := req.SetResult(&out).Get("/api/orders/")
	if err := classify("list orders", resp, err, true); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrderStatus sends PATCH /api/order/{id}/status/ as staff.
func (c *Client) UpdateOrderStatus(ctx context.Context, token string, orderID int64, status domain.OrderStatus) (domain.StatusUpdateResponse, error) {
	req, err := c.authed(ctx, token)
	if err != nil {
		return domain.StatusUpdateResponse{}, err
	}
	var out domain.StatusUpdateResponse
	resp, err := req.
		SetBody(domain.StatusUpdateRequest{Status: status}).
		SetResult(&out).
		Patch("/api/order/" + strconv.FormatInt(orderID, 10) + "/status/")
	if err := classify(fmt.Sprintf("update order %d", orderID), resp, err, true); err != nil {
		return domain.StatusUpdateResponse{}, err
	}
	return out, nil
}
