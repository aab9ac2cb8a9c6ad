package memory

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository поверх Store.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create выдаёт следующий номер и сохраняет заказ с позициями как одну
// атомарную операцию под мьютексом хранилища.
func (r *orderRepositoryInMemory) Create(order domain.Order) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return domain.Order{}, domain.ErrNumberConflict
	}
	if err := r.checkReferencesLocked(order); err != nil {
		return domain.Order{}, err
	}

	number, err := domain.NextOrderNumber(s.lastOrderNumber)
	if err != nil {
		return domain.Order{}, err
	}
	order.Number = number

	s.orders[order.ID] = copyOrder(order)
	s.lastOrderNumber = number
	return order, nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

// List возвращает заказы по фильтру, новые сначала.
func (r *orderRepositoryInMemory) List(filter domain.OrderFilter) ([]domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.NumberContains != "" && !strings.Contains(order.Number, filter.NumberContains) {
			continue
		}
		if filter.ClientNameContains != "" {
			client, ok := s.clients[order.ClientID]
			if !ok || !strings.Contains(strings.ToLower(client.Name), strings.ToLower(filter.ClientNameContains)) {
				continue
			}
		}
		result = append(result, copyOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Save перезаписывает поля заказа и весь набор позиций, проверяя версию
// (optimistic locking). Номер заказа остаётся неизменным.
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	if err := r.checkReferencesLocked(order); err != nil {
		return err
	}

	order.Number = current.Number
	order.CreatedAt = current.CreatedAt
	order.Version++
	s.orders[order.ID] = copyOrder(order)
	return nil
}

// SaveStatus обновляет только статус заказа с учётом optimistic locking.
func (r *orderRepositoryInMemory) SaveStatus(order domain.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}

	current.Status = order.Status
	current.UpdatedAt = order.UpdatedAt
	current.Version++
	s.orders[order.ID] = current
	return nil
}

// ClientStats агрегирует количество и общую сумму заказов клиента на лету.
func (r *orderRepositoryInMemory) ClientStats(clientID string) (domain.ClientStats, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.ClientStats{TotalSpent: decimal.Zero}
	for _, order := range s.orders {
		if order.ClientID != clientID {
			continue
		}
		stats.OrderCount++
		stats.TotalSpent = stats.TotalSpent.Add(order.Total)
	}
	return stats, nil
}

// checkReferencesLocked повторяет FK-проверки PostgreSQL-схемы.
func (r *orderRepositoryInMemory) checkReferencesLocked(order domain.Order) error {
	if _, ok := r.store.clients[order.ClientID]; !ok {
		return domain.ErrClientNotFound
	}
	for _, item := range order.Items {
		if _, ok := r.store.products[item.ProductID]; !ok {
			return domain.ErrProductNotFound
		}
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
