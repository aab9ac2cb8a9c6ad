package memory

import (
	"sort"
	"sync"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

// historyRepositoryInMemory хранит события жизненного цикла заказов в памяти.
type historyRepositoryInMemory struct {
	mu     sync.RWMutex
	events map[string][]domain.HistoryEvent
}

// NewHistoryRepository создаёт in-memory реализацию HistoryRepository.
func NewHistoryRepository() domain.HistoryRepository {
	return &historyRepositoryInMemory{events: make(map[string][]domain.HistoryEvent)}
}

// Append добавляет событие в хранилище.
func (r *historyRepositoryInMemory) Append(event domain.HistoryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.OrderID] = append(r.events[event.OrderID], event)

	sort.Slice(r.events[event.OrderID], func(i, j int) bool {
		return r.events[event.OrderID][i].Occurred.Before(r.events[event.OrderID][j].Occurred)
	})

	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r *historyRepositoryInMemory) List(orderID string) ([]domain.HistoryEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[orderID]
	result := make([]domain.HistoryEvent, len(events))
	copy(result, events)
	return result, nil
}

var _ domain.HistoryRepository = (*historyRepositoryInMemory)(nil)
