package domain

// OrderFilter описывает параметры выборки заказов.
type OrderFilter struct {
	// Status ограничивает выборку одним статусом (пустое значение — без фильтра).
	Status OrderStatus
	// ClientNameContains фильтрует по подстроке имени клиента без учёта регистра.
	ClientNameContains string
	// NumberContains фильтрует по подстроке номера заказа.
	NumberContains string
	// Limit ограничивает размер выборки (0 — без ограничения).
	Limit int
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create атомарно выдаёт номер и сохраняет заказ вместе с позициями.
	// При конкурентной выдаче того же номера возвращает ErrNumberConflict.
	Create(order Order) (Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// List возвращает заказы по фильтру, новые сначала.
	List(filter OrderFilter) ([]Order, error)
	// Save атомарно перезаписывает поля заказа и весь набор позиций
	// с учётом optimistic locking.
	Save(order Order) error
	// SaveStatus атомарно обновляет только статус заказа.
	SaveStatus(order Order) error
	// ClientStats агрегирует количество заказов и общую сумму по клиенту.
	ClientStats(clientID string) (ClientStats, error)
}

// ClientRepository описывает хранилище клиентов.
type ClientRepository interface {
	// Create сохраняет нового клиента; email должен быть уникален.
	Create(client Client) error
	// Get возвращает клиента или ErrClientNotFound.
	Get(id string) (Client, error)
	// List возвращает всех клиентов, отсортированных по имени.
	List() ([]Client, error)
	// Save применяет обновления к клиенту.
	Save(client Client) error
	// Delete удаляет клиента; возвращает ErrClientReferenced,
	// пока на клиента ссылаются заказы.
	Delete(id string) error
}

// ProductRepository описывает хранилище товаров.
type ProductRepository interface {
	// Create сохраняет новый товар.
	Create(product Product) error
	// Get возвращает товар или ErrProductNotFound.
	Get(id string) (Product, error)
	// List возвращает все товары, отсортированные по названию.
	List() ([]Product, error)
	// Save применяет обновления к товару.
	Save(product Product) error
	// Delete удаляет товар; возвращает ErrProductReferenced,
	// пока на товар ссылаются позиции заказов.
	Delete(id string) error
}
