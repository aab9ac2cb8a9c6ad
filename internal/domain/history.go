package domain

import "time"

// Типы событий в истории заказа.
const (
	HistoryEventOrderCreated  = "OrderCreated"
	HistoryEventOrderUpdated  = "OrderUpdated"
	HistoryEventStatusChanged = "OrderStatusChanged"
)

// HistoryEvent описывает событие в жизненном цикле заказа.
type HistoryEvent struct {
	OrderID  string
	Type     string
	Detail   string
	Occurred time.Time
}

// HistoryRepository хранит события жизненного цикла заказа.
type HistoryRepository interface {
	Append(event HistoryEvent) error
	List(orderID string) ([]HistoryEvent, error)
}
