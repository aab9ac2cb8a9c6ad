package memory

import (
	"sort"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository поверх Store.
type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает in-memory репозиторий товаров.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

// Create сохраняет новый товар.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает все товары, отсортированные по названию.
func (r *productRepositoryInMemory) List() ([]domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Save применяет обновления к товару. Уже снятые в заказах цены не трогаются.
func (r *productRepositoryInMemory) Save(product domain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	s.products[product.ID] = product
	return nil
}

// Delete удаляет товар, если на него не ссылается ни одна позиция заказа.
func (r *productRepositoryInMemory) Delete(id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	for _, order := range s.orders {
		for _, item := range order.Items {
			if item.ProductID == id {
				return domain.ErrProductReferenced
			}
		}
	}
	delete(s.products, id)
	return nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
