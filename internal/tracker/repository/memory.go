package repository

import (
	"context"
	"sync"

	"restaurant-client/internal/tracker/models"
)

// MemoryRepo backs the tracker when storage.driver is memory.
type MemoryRepo struct {
	mu     sync.RWMutex
	views  map[int64]models.OrderView
	events map[int64][]models.OrderEvent
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		views:  map[int64]models.OrderView{},
		events: map[int64][]models.OrderEvent{},
	}
}

func (m *MemoryRepo) UpsertOrderView(_ context.Context, v models.OrderView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.views[v.OrderID]; ok {
		if v.CustomerName == "" {
			v.CustomerName = old.CustomerName
		}
		if v.TableNumber == "" {
			v.TableNumber = old.TableNumber
		}
	}
	m.views[v.OrderID] = v
	return nil
}

func (m *MemoryRepo) AppendEvent(_ context.Context, e models.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.OrderID] = append(m.events[e.OrderID], e)
	return nil
}

func (m *MemoryRepo) GetOrderView(_ context.Context, id int64) (models.OrderView, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[id]
	return v, ok, nil
}

func (m *MemoryRepo) GetOrderTimeline(_ context.Context, id int64, limit, offset int) ([]models.OrderEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evs := m.events[id]
	out := []models.OrderEvent{}
	if offset >= len(evs) {
		return out, nil
	}
	evs = evs[offset:]
	if limit >= 0 && limit < len(evs) {
		evs = evs[:limit]
	}
	return append(out, evs...), nil
}
