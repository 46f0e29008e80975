package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/domain"
	kitchen "restaurant-client/internal/kitchen/service"
	"restaurant-client/internal/tracker/models"
)

type Timeline interface {
	GetOrderTimeline(ctx context.Context, id int64, limit, offset int) ([]models.OrderEvent, error)
}

type KitchenHandler struct {
	svc      kitchen.KitchenServiceInterface
	timeline Timeline
	lg       *logger.Logger
}

func NewKitchenHandler(svc kitchen.KitchenServiceInterface, timeline Timeline, lg *logger.Logger) *KitchenHandler {
	return &KitchenHandler{svc: svc, timeline: timeline, lg: lg}
}

func Router(h *KitchenHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1/kitchen").Subrouter()
	api.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	api.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/orders/{order_id:[0-9]+}/advance", h.Advance).Methods(http.MethodPost)
	api.HandleFunc("/orders/{order_id:[0-9]+}/timeline", h.Timeline).Methods(http.MethodGet)
	return r
}

type orderView struct {
	OrderID      int64                `json:"order_id"`
	TableNumber  string               `json:"table_number"`
	CustomerName string               `json:"customer_name"`
	Status       domain.OrderStatus   `json:"status"`
	NextStatus   domain.OrderStatus   `json:"next_status,omitempty"`
	Action       string               `json:"action,omitempty"`
	TotalAmount  string               `json:"total_amount"`
	Items        []domain.KitchenItem `json:"items"`
	CreatedAt    time.Time            `json:"created_at"`
}

type snapshotView struct {
	Orders    []orderView `json:"orders"`
	Loaded    bool        `json:"loaded"`
	FetchedAt *time.Time  `json:"fetched_at,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func (h *KitchenHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *KitchenHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, renderSnapshot(h.svc.Snapshot()))
}

func (h *KitchenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		h.writeError(w, "kitchen_refresh_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, renderSnapshot(h.svc.Snapshot()))
}

func (h *KitchenHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.Advance(r.Context(), id)
	if err != nil {
		h.writeError(w, "order_advance_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *KitchenHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	limit := atoiDefault(r.URL.Query().Get("limit"), 50)
	offset := atoiDefault(r.URL.Query().Get("offset"), 0)
	events, err := h.timeline.GetOrderTimeline(r.Context(), id, limit, offset)
	if err != nil {
		h.writeError(w, "order_timeline_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "events": events})
}

func (h *KitchenHandler) writeError(w http.ResponseWriter, action string, err error) {
	status, typ := problemFor(err)
	if status >= http.StatusInternalServerError {
		h.lg.Error(action, err, nil)
	}
	writeProblem(w, status, typ, apperr.UserMessage(err))
}

func problemFor(err error) (int, string) {
	if errors.Is(err, kitchen.ErrUnknownOrder) {
		return http.StatusNotFound, "not_found"
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		return http.StatusConflict, "conflict"
	case apperr.CodeAuthentication, apperr.CodeAuthorization:
		return http.StatusUnauthorized, "unauthorized"
	case apperr.CodeTransport:
		return http.StatusBadGateway, "backend_unreachable"
	case apperr.CodeBusiness:
		return http.StatusUnprocessableEntity, "backend_rejected"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func renderSnapshot(s kitchen.Snapshot) snapshotView {
	out := snapshotView{Orders: make([]orderView, 0, len(s.Orders)), Loaded: s.Loaded}
	if s.Loaded {
		at := s.FetchedAt
		out.FetchedAt = &at
	}
	if s.Err != nil {
		out.Error = apperr.UserMessage(s.Err)
	}
	for _, o := range s.Orders {
		v := orderView{
			OrderID:      o.OrderID,
			TableNumber:  o.TableNumber,
			CustomerName: o.CustomerName,
			Status:       o.Status,
			Action:       o.Status.ActionLabel(),
			TotalAmount:  o.TotalAmount.StringFixed(2),
			Items:        o.Items,
			CreatedAt:    o.CreatedAt,
		}
		if next, ok := o.Status.Next(); ok {
			v.NextStatus = next
		}
		out.Orders = append(out.Orders, v)
	}
	return out
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["order_id"], 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid order id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem writes a simplified RFC 7807 body.
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

func atoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
