package kafka

import "time"

// EventType определяет тип события заказа.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderUpdated       EventType = "order.updated"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "vendaspro.order.events"
	TopicDeadLetterQueue = "vendaspro.dlq"
)

// Kafka headers для retry-логики DLQ.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent — событие жизненного цикла заказа во внешнем контракте.
type OrderEvent struct {
	EventType EventType      `json:"event_type"`
	OrderID   string         `json:"order_id"`
	Number    string         `json:"number,omitempty"`
	ClientID  string         `json:"client_id,omitempty"`
	Status    string         `json:"status,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewOrderEvent создаёт событие заказа с текущей меткой времени.
func NewOrderEvent(eventType EventType, orderID, number, clientID, status string, metadata map[string]any) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		Number:    number,
		ClientID:  clientID,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
