package memory

import (
	"sync"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

// Store держит все in-memory таблицы под одним мьютексом, чтобы репозитории
// могли согласованно проверять ссылки между сущностями (restrict-on-delete,
// FK-проверки) так же, как это делает PostgreSQL-схема.
type Store struct {
	mu              sync.RWMutex
	orders          map[string]domain.Order
	clients         map[string]domain.Client
	products        map[string]domain.Product
	lastOrderNumber string
}

// NewStore создаёт пустое in-memory хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		orders:   make(map[string]domain.Order),
		clients:  make(map[string]domain.Client),
		products: make(map[string]domain.Product),
	}
}

// copyOrder возвращает копию заказа с собственным слайсом позиций,
// чтобы избежать непредсказуемых мутаций извне.
func copyOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
