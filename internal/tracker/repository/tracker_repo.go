package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant-client/internal/common/db"
	"restaurant-client/internal/domain"
	"restaurant-client/internal/tracker/models"
)

type TrackerRepoInterface interface {
	UpsertOrderView(ctx context.Context, v models.OrderView) error
	AppendEvent(ctx context.Context, e models.OrderEvent) error
	GetOrderView(ctx context.Context, id int64) (models.OrderView, bool, error)
	GetOrderTimeline(ctx context.Context, id int64, limit, offset int) ([]models.OrderEvent, error)
}

type TrackerRepo struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewTrackerRepo(sqlDB *sql.DB, dialect db.Dialect) *TrackerRepo {
	return &TrackerRepo{db: sqlDB, dialect: dialect}
}

func (r *TrackerRepo) UpsertOrderView(ctx context.Context, v models.OrderView) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
INSERT INTO orders_view (order_id, status, customer_name, table_number, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (order_id) DO UPDATE SET
  status = excluded.status,
  customer_name = COALESCE(excluded.customer_name, orders_view.customer_name),
  table_number = COALESCE(excluded.table_number, orders_view.table_number),
  updated_at = excluded.updated_at
`), v.OrderID, string(v.Status), nullIfEmpty(v.CustomerName), nullIfEmpty(v.TableNumber), v.UpdatedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert order view %d: %w", v.OrderID, err)
	}
	return nil
}

func (r *TrackerRepo) AppendEvent(ctx context.Context, e models.OrderEvent) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
INSERT INTO order_events (order_id, old_status, new_status, observed_at)
VALUES (?, ?, ?, ?)
`), e.OrderID, nullIfEmpty(string(e.OldStatus)), string(e.NewStatus), e.ObservedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("append event %d: %w", e.OrderID, err)
	}
	return nil
}

func (r *TrackerRepo) GetOrderView(ctx context.Context, id int64) (models.OrderView, bool, error) {
	var (
		v       models.OrderView
		status  string
		updated int64
	)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
SELECT order_id, status, COALESCE(customer_name, ''), COALESCE(table_number, ''), updated_at
FROM orders_view WHERE order_id=?
`), id).Scan(&v.OrderID, &status, &v.CustomerName, &v.TableNumber, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OrderView{}, false, nil
	}
	if err != nil {
		return models.OrderView{}, false, fmt.Errorf("get order view %d: %w", id, err)
	}
	v.Status = domain.OrderStatus(status)
	v.UpdatedAt = time.UnixMilli(updated).UTC()
	return v, true, nil
}

func (r *TrackerRepo) GetOrderTimeline(ctx context.Context, id int64, limit, offset int) ([]models.OrderEvent, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
SELECT COALESCE(old_status, ''), new_status, observed_at
FROM order_events WHERE order_id=?
ORDER BY observed_at ASC
LIMIT ? OFFSET ?
`), id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get timeline %d: %w", id, err)
	}
	defer rows.Close()

	out := []models.OrderEvent{}
	for rows.Next() {
		var (
			oldSt, newSt string
			at           int64
		)
		if err := rows.Scan(&oldSt, &newSt, &at); err != nil {
			return nil, fmt.Errorf("scan timeline %d: %w", id, err)
		}
		out = append(out, models.OrderEvent{
			OrderID:    id,
			OldStatus:  domain.OrderStatus(oldSt),
			NewStatus:  domain.OrderStatus(newSt),
			ObservedAt: time.UnixMilli(at).UTC(),
		})
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
