package service

import (
	"context"
	"fmt"
	"time"

	"restaurant-client/internal/domain"
	"restaurant-client/internal/tracker/models"
	"restaurant-client/internal/tracker/repository"
)

const (
	defaultTimelineLimit = 50
	maxTimelineLimit     = 500
)

type TrackerServiceInterface interface {
	Observe(ctx context.Context, orders []domain.KitchenOrder) ([]models.OrderEvent, error)
	GetOrderView(ctx context.Context, id int64) (models.OrderView, bool, error)
	GetOrderTimeline(ctx context.Context, id int64, limit, offset int) ([]models.OrderEvent, error)
}

type TrackerService struct {
	repo repository.TrackerRepoInterface
	now  func() time.Time
}

func NewTrackerService(repo repository.TrackerRepoInterface) *TrackerService {
	return &TrackerService{repo: repo, now: time.Now}
}

// Observe records an event for every order that is new or whose status
// differs from the stored view, and returns the recorded events.
func (s *TrackerService) Observe(ctx context.Context, orders []domain.KitchenOrder) ([]models.OrderEvent, error) {
	at := s.now().UTC()
	var changed []models.OrderEvent
	for _, o := range orders {
		prev, ok, err := s.repo.GetOrderView(ctx, o.OrderID)
		if err != nil {
			return changed, err
		}
		if ok && prev.Status == o.Status {
			continue
		}
		ev := models.OrderEvent{OrderID: o.OrderID, NewStatus: o.Status, ObservedAt: at}
		if ok {
			ev.OldStatus = prev.Status
		}
		if err := s.repo.AppendEvent(ctx, ev); err != nil {
			return changed, err
		}
		if err := s.repo.UpsertOrderView(ctx, models.OrderView{
			OrderID:      o.OrderID,
			Status:       o.Status,
			CustomerName: o.CustomerName,
			TableNumber:  o.TableNumber,
			UpdatedAt:    at,
		}); err != nil {
			return changed, err
		}
		changed = append(changed, ev)
	}
	return changed, nil
}

func (s *TrackerService) GetOrderView(ctx context.Context, id int64) (models.OrderView, bool, error) {
	return s.repo.GetOrderView(ctx, id)
}

func (s *TrackerService) GetOrderTimeline(ctx context.Context, id int64, limit, offset int) ([]models.OrderEvent, error) {
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	if limit > maxTimelineLimit {
		limit = maxTimelineLimit
	}
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d", offset)
	}
	return s.repo.GetOrderTimeline(ctx, id, limit, offset)
}
