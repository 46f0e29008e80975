package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/config"
	"restaurant-client/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.Backend{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, AuthScheme: "Token"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestMenu(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/menu/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 1, "name": "Spice Route",
			"categories": []any{map[string]any{"id": 2, "name": "Mains", "items": []any{
				map[string]any{"id": 5, "name": "Burger", "price": "120.00", "available": true},
			}}},
		})
	})

	m, err := c.Menu(context.Background())
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	it, ok := m.FindItem(5)
	if !ok || it.Price.StringFixed(2) != "120.00" {
		t.Fatalf("unexpected menu %+v", m)
	}
}

func TestCreateOrderSendsPayloadAndDecodesResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.CustomerName != "Asha" || req.TableNumber != "T4" || len(req.Items) != 1 || req.Items[0].MenuItemID != 5 {
			t.Errorf("unexpected payload %+v", req)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("order placement must be anonymous")
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Order placed successfully", "order_id": 42, "total_amount": "240.00",
		})
	})

	resp, err := c.CreateOrder(context.Background(), domain.CreateOrderRequest{
		CustomerName: "Asha", TableNumber: "T4",
		Items: []domain.CreateOrderItem{{MenuItemID: 5, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if resp.OrderID != 42 || resp.TotalAmount.StringFixed(2) != "240.00" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCreateOrderServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Menu item with ID 9 not found"})
	})

	_, err := c.CreateOrder(context.Background(), domain.CreateOrderRequest{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if apperr.CodeOf(err) != apperr.CodeBusiness {
		t.Fatalf("expected business code, got %s", apperr.CodeOf(err))
	}
	if msg, ok := ServerMessage(err); !ok || msg != "Menu item with ID 9 not found" {
		t.Fatalf("expected verbatim server message, got %q ok=%v", msg, ok)
	}
}

func TestStaffLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Username {
		case "chef":
			if req.Password != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok-1", "username": "chef"})
		case "guest":
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied. Not a staff user."})
		}
	})
	ctx := context.Background()

	sess, err := c.StaffLogin(ctx, "chef", "secret")
	if err != nil || sess.Token != "tok-1" || sess.Username != "chef" {
		t.Fatalf("unexpected login result %+v, %v", sess, err)
	}
	if _, err := c.StaffLogin(ctx, "chef", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := c.StaffLogin(ctx, "guest", "x"); !errors.Is(err, ErrNotStaff) {
		t.Fatalf("expected ErrNotStaff, got %v", err)
	}
}

func TestListOrdersUsesTokenScheme(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token tok-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{
			"order_id": 7, "customer_name": "Asha", "table_number": "T4", "status": "pending",
			"total_amount": "300.00", "created_at": "2026-10-19T12:30:00Z",
			"items": []map[string]any{{"name": "Burger", "quantity": 2}},
		}})
	})
	ctx := context.Background()

	orders, err := c.ListOrders(ctx, "tok-1")
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != domain.StatusPending || orders[0].Items[0].Quantity != 2 {
		t.Fatalf("unexpected orders %+v", orders)
	}
	if _, err := c.ListOrders(ctx, "stale"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestAuthedCallsWithoutTokenMakeNoRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	if _, err := c.ListOrders(context.Background(), ""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if _, err := c.UpdateOrderStatus(context.Background(), " ", 1, domain.StatusAccepted); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/order/7/status/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body domain.StatusUpdateRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Order status updated", "order_id": 7, "new_status": body.Status})
	})

	resp, err := c.UpdateOrderStatus(context.Background(), "tok-1", 7, domain.StatusAccepted)
	if err != nil || resp.NewStatus != domain.StatusAccepted || resp.OrderID != 7 {
		t.Fatalf("unexpected update %+v, %v", resp, err)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(config.Backend{BaseURL: url, Timeout: time.Second})
	_, err := c.Menu(context.Background())
	if apperr.CodeOf(err) != apperr.CodeTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}
