package order

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/rodrigofontes/vendaspro/internal/domain"
	"github.com/rodrigofontes/vendaspro/internal/metrics"
)

// maxCreateAttempts ограничивает повторы создания при гонке за номер заказа.
const maxCreateAttempts = 3

// ItemSpec описывает позицию во входных данных создания или обновления заказа.
// Если UnitPrice не задан, цена снимается с товара каталога в момент операции.
type ItemSpec struct {
	ProductID string
	Quantity  int32
	UnitPrice *decimal.Decimal
}

// CreateInput — входные данные создания заказа.
type CreateInput struct {
	ClientID       string
	Address        domain.Address
	ShippingMethod domain.ShippingMethod
	ShippingCost   decimal.Decimal
	Items          []ItemSpec
}

// UpdateInput — частичное обновление заказа. Nil-поля не трогаются.
// Непустой Items означает полную замену набора позиций.
type UpdateInput struct {
	ClientID       *string
	Address        *domain.Address
	ShippingMethod *domain.ShippingMethod
	ShippingCost   *decimal.Decimal
	Items          []ItemSpec
}

// Service реализует жизненный цикл заказа поверх репозиториев.
type Service struct {
	orders   domain.OrderRepository
	clients  domain.ClientRepository
	products domain.ProductRepository
	history  domain.HistoryRepository
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
	now      func() time.Time
	newID    func() string
}

// NewService создаёт рабочий экземпляр сервиса заказов.
func NewService(
	orders domain.OrderRepository,
	clients domain.ClientRepository,
	products domain.ProductRepository,
	history domain.HistoryRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	s := newService(orders, clients, products, history, outbox, logger)
	s.metrics = metrics.NewOrderMetrics()
	return s
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	clients domain.ClientRepository,
	products domain.ProductRepository,
	history domain.HistoryRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	return newService(orders, clients, products, history, outbox, logger)
}

func newService(
	orders domain.OrderRepository,
	clients domain.ClientRepository,
	products domain.ProductRepository,
	history domain.HistoryRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:   orders,
		clients:  clients,
		products: products,
		history:  history,
		outbox:   outbox,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Create собирает заказ из входных данных, снимает цены с каталога,
// пересчитывает суммы и сохраняет. Конфликт за номер заказа повторяется
// до maxCreateAttempts раз.
func (s *Service) Create(input CreateInput) (domain.Order, error) {
	start := s.now()
	defer s.recordDuration("create", start)

	if input.ClientID == "" {
		return domain.Order{}, domain.ErrClientRequired
	}
	if _, err := s.clients.Get(input.ClientID); err != nil {
		return domain.Order{}, err
	}

	now := s.now()
	order := domain.Order{
		ID:             s.newID(),
		ClientID:       input.ClientID,
		Status:         domain.OrderStatusPending,
		Address:        input.Address,
		ShippingMethod: input.ShippingMethod,
		ShippingCost:   input.ShippingCost,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.fillItems(&order, input.Items, now); err != nil {
		s.recordFailure("create")
		return domain.Order{}, err
	}
	if err := order.Recalculate(); err != nil {
		s.recordFailure("create")
		return domain.Order{}, err
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.recordFailure("create")
		return domain.Order{}, errors.Join(errs...)
	}

	var (
		created domain.Order
		err     error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		created, err = s.orders.Create(order)
		if err == nil {
			break
		}
		if !domain.IsRetryableConflict(err) || attempt == maxCreateAttempts {
			s.logger.WithError(err).WithField("client_id", order.ClientID).Warn("create order failed")
			s.recordFailure("create")
			return domain.Order{}, err
		}
		s.logger.WithFields(log.Fields{
			"client_id": order.ClientID,
			"attempt":   attempt,
		}).Warn("order number conflict, retrying")
		if s.metrics != nil {
			s.metrics.RecordNumberRetry()
		}
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.emitEvent(created, "order.created", domain.HistoryEventOrderCreated, map[string]any{
		"number":    created.Number,
		"client_id": created.ClientID,
		"total":     created.Total.String(),
	})
	s.logger.WithFields(log.Fields{
		"order_id": created.ID,
		"number":   created.Number,
	}).Info("order created")

	return created, nil
}

// Update применяет частичное обновление. Терминальные заказы не редактируются,
// номер заказа никогда не меняется.
func (s *Service) Update(id string, input UpdateInput) (domain.Order, error) {
	start := s.now()
	defer s.recordDuration("update", start)

	order, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status.Terminal() {
		s.recordFailure("update")
		return domain.Order{}, domain.ErrInvalidStatus
	}

	now := s.now()
	if input.ClientID != nil {
		if _, err := s.clients.Get(*input.ClientID); err != nil {
			return domain.Order{}, err
		}
		order.ClientID = *input.ClientID
	}
	if input.Address != nil {
		order.Address = *input.Address
	}
	if input.ShippingMethod != nil {
		order.ShippingMethod = *input.ShippingMethod
	}
	if input.ShippingCost != nil {
		order.ShippingCost = *input.ShippingCost
	}
	if input.Items != nil {
		order.RemoveAllItems()
		if err := s.fillItems(&order, input.Items, now); err != nil {
			s.recordFailure("update")
			return domain.Order{}, err
		}
	}

	if err := order.Recalculate(); err != nil {
		s.recordFailure("update")
		return domain.Order{}, err
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.recordFailure("update")
		return domain.Order{}, errors.Join(errs...)
	}

	order.UpdatedAt = now
	if err := s.orders.Save(order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("save order failed")
		s.recordFailure("update")
		return domain.Order{}, err
	}
	order.Version++

	if s.metrics != nil {
		s.metrics.RecordOrderUpdated()
	}
	s.emitEvent(order, "order.updated", domain.HistoryEventOrderUpdated, map[string]any{
		"total": order.Total.String(),
	})

	return order, nil
}

// ChangeStatus переводит заказ в новый статус с проверкой допустимости
// перехода. Конфликт версий повторяется на свежей копии заказа.
func (s *Service) ChangeStatus(id string, next domain.OrderStatus) (domain.Order, error) {
	start := s.now()
	defer s.recordDuration("change_status", start)

	const maxAttempts = 3

	order, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		previous := order.Status
		if err := order.SetStatus(next); err != nil {
			s.recordFailure("change_status")
			return domain.Order{}, err
		}
		order.UpdatedAt = s.now()

		err = s.orders.SaveStatus(order)
		if err == nil {
			order.Version++
			if s.metrics != nil {
				s.metrics.RecordStatusChange(string(next))
			}
			s.emitEvent(order, "order.status_changed", domain.HistoryEventStatusChanged, map[string]any{
				"from": string(previous),
				"to":   string(next),
			})
			return order, nil
		}

		if !domain.IsVersionConflict(err) || attempt == maxAttempts {
			s.logger.WithError(err).WithField("order_id", order.ID).Warn("status change failed")
			s.recordFailure("change_status")
			return domain.Order{}, err
		}

		fresh, loadErr := s.orders.Get(order.ID)
		if loadErr != nil {
			s.recordFailure("change_status")
			return domain.Order{}, loadErr
		}
		order = fresh
	}

	s.recordFailure("change_status")
	return domain.Order{}, domain.ErrOrderVersionConflict
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(id string) (domain.Order, error) {
	return s.orders.Get(id)
}

// List возвращает заказы по фильтру.
func (s *Service) List(filter domain.OrderFilter) ([]domain.Order, error) {
	return s.orders.List(filter)
}

// History возвращает события жизненного цикла заказа.
func (s *Service) History(id string) ([]domain.HistoryEvent, error) {
	if _, err := s.orders.Get(id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.HistoryEvent{}, nil
	}
	return s.history.List(id)
}

// ClientStats возвращает живую агрегацию по заказам клиента.
func (s *Service) ClientStats(clientID string) (domain.ClientStats, error) {
	if _, err := s.clients.Get(clientID); err != nil {
		return domain.ClientStats{}, err
	}
	return s.orders.ClientStats(clientID)
}

// fillItems добавляет позиции в заказ, снимая цену с товара каталога,
// когда она не указана явно.
func (s *Service) fillItems(order *domain.Order, specs []ItemSpec, now time.Time) error {
	if len(specs) == 0 {
		return domain.ErrEmptyOrder
	}

	for _, spec := range specs {
		product, err := s.products.Get(spec.ProductID)
		if err != nil {
			return err
		}

		unitPrice := product.Price
		if spec.UnitPrice != nil {
			unitPrice = *spec.UnitPrice
		}

		if err := order.AddItem(s.newID(), spec.ProductID, spec.Quantity, unitPrice); err != nil {
			return err
		}
		order.Items[len(order.Items)-1].CreatedAt = now
	}

	return nil
}

func (s *Service) emitEvent(order domain.Order, eventType, historyType string, payload map[string]any) {
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["order_id"] = order.ID
	payload["ts"] = order.UpdatedAt.Format(time.RFC3339Nano)

	if s.outbox != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    eventType,
			}).Error("marshal event failed")
		} else {
			msg := domain.OutboxMessage{
				AggregateType: "order",
				AggregateID:   order.ID,
				EventType:     eventType,
				Payload:       data,
			}
			if _, err := s.outbox.Enqueue(msg); err != nil {
				s.logger.WithError(err).WithFields(log.Fields{
					"order_id": order.ID,
					"event":    eventType,
				}).Error("enqueue event failed")
			} else if s.metrics != nil {
				s.metrics.RecordOutboxEvent()
			}
		}
	}

	if s.history != nil {
		detail, _ := json.Marshal(payload)
		event := domain.HistoryEvent{
			OrderID:  order.ID,
			Type:     historyType,
			Detail:   string(detail),
			Occurred: order.UpdatedAt,
		}
		if err := s.history.Append(event); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    historyType,
			}).Warn("append history event failed")
		} else if s.metrics != nil {
			s.metrics.RecordHistoryEvent()
		}
	}
}

func (s *Service) recordDuration(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOpDuration(op, s.now().Sub(start))
	}
}

func (s *Service) recordFailure(op string) {
	if s.metrics != nil {
		s.metrics.RecordRequestFailed(op)
	}
}
