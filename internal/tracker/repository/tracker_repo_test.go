package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"restaurant-client/internal/common/db"
	"restaurant-client/internal/domain"
	"restaurant-client/internal/tracker/models"
)

func newMockRepo(t *testing.T) (*TrackerRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewTrackerRepo(sqlDB, db.Postgres), mock
}

func TestUpsertOrderView(t *testing.T) {
	r, mock := newMockRepo(t)
	at := time.UnixMilli(1700000000000)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders_view (order_id, status, customer_name, table_number, updated_at)`)).
		WithArgs(int64(7), "preparing", "Asha", nil, int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.UpsertOrderView(context.Background(), models.OrderView{
		OrderID: 7, Status: domain.StatusPreparing, CustomerName: "Asha", UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppendFirstEventStoresNullOldStatus(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_events (order_id, old_status, new_status, observed_at)`)).
		WithArgs(int64(7), nil, "pending", int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.AppendEvent(context.Background(), models.OrderEvent{
		OrderID: 7, NewStatus: domain.StatusPending, ObservedAt: time.UnixMilli(1700000000000),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetOrderView(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders_view WHERE order_id=$1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "customer_name", "table_number", "updated_at"}).
			AddRow(int64(7), "ready", "Asha", "5", int64(1700000000000)))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders_view WHERE order_id=$1`)).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "customer_name", "table_number", "updated_at"}))

	v, ok, err := r.GetOrderView(context.Background(), 7)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v.Status != domain.StatusReady || v.TableNumber != "5" || v.UpdatedAt.UnixMilli() != 1700000000000 {
		t.Fatalf("unexpected view %+v", v)
	}
	if _, ok, err := r.GetOrderView(context.Background(), 8); ok || err != nil {
		t.Fatalf("expected missing view, ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetOrderTimeline(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_events WHERE order_id=$1`)).
		WithArgs(int64(7), 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"old_status", "new_status", "observed_at"}).
			AddRow("", "pending", int64(1000)).
			AddRow("pending", "accepted", int64(2000)))

	evs, err := r.GetOrderTimeline(context.Background(), 7, 50, 0)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(evs) != 2 || evs[0].OldStatus != "" || evs[1].OldStatus != domain.StatusPending || evs[1].NewStatus != domain.StatusAccepted {
		t.Fatalf("unexpected events %+v", evs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemoryRepoPaging(t *testing.T) {
	m := NewMemoryRepo()
	ctx := context.Background()
	for i, st := range []domain.OrderStatus{domain.StatusPending, domain.StatusAccepted, domain.StatusPreparing} {
		_ = m.AppendEvent(ctx, models.OrderEvent{OrderID: 1, NewStatus: st, ObservedAt: time.UnixMilli(int64(i))})
	}

	evs, _ := m.GetOrderTimeline(ctx, 1, 2, 1)
	if len(evs) != 2 || evs[0].NewStatus != domain.StatusAccepted {
		t.Fatalf("unexpected page %+v", evs)
	}
	if evs, _ := m.GetOrderTimeline(ctx, 1, 10, 5); len(evs) != 0 {
		t.Fatalf("expected empty page past the end, got %+v", evs)
	}
}
