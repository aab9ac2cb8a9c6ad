package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ожидает обработки.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusInProgress — заказ взят в работу.
	OrderStatusInProgress OrderStatus = "in_progress"
	// OrderStatusFinalized — заказ завершён; терминальный статус.
	OrderStatusFinalized OrderStatus = "finalized"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// statusTransitions задаёт допустимые переходы статуса.
// Из терминальных статусов переходов нет.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusFinalized, OrderStatusCancelled},
	OrderStatusFinalized:  {},
	OrderStatusCancelled:  {},
}

// Valid сообщает, известен ли статус.
func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo проверяет допустимость перехода в следующий статус.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal сообщает, что из статуса нет исходящих переходов.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(statusTransitions[s]) == 0
}

// ShippingMethod описывает способ доставки заказа.
type ShippingMethod string

const (
	ShippingStandardMail ShippingMethod = "standard_mail"
	ShippingExpressMail  ShippingMethod = "express_mail"
	ShippingCarrier      ShippingMethod = "carrier"
	ShippingLocalPickup  ShippingMethod = "local_pickup"
)

// Valid сообщает, известен ли метод доставки.
func (m ShippingMethod) Valid() bool {
	switch m {
	case ShippingStandardMail, ShippingExpressMail, ShippingCarrier, ShippingLocalPickup:
		return true
	}
	return false
}

// Address — структурированный адрес доставки. Complement опционален.
type Address struct {
	PostalCode string
	City       string
	State      string
	Street     string
	Number     string
	Complement string
}

// Complete проверяет, что все обязательные поля адреса заполнены.
func (a Address) Complete() bool {
	return a.PostalCode != "" && a.City != "" && a.State != "" &&
		a.Street != "" && a.Number != ""
}

// Oneline возвращает адрес одной строкой для отчётов и логов.
func (a Address) Oneline() string {
	parts := []string{a.Street + ", " + a.Number}
	if a.Complement != "" {
		parts = append(parts, a.Complement)
	}
	parts = append(parts, a.City, a.State, a.PostalCode)
	return strings.Join(parts, ", ")
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — идентификатор товара; цена снимается в момент добавления позиции.
	ProductID string
	// Quantity — количество единиц товара, не меньше 1.
	Quantity int32
	// UnitPrice — зафиксированная цена за единицу.
	UnitPrice decimal.Decimal
	// LineTotal — Quantity * UnitPrice с округлением до двух знаков.
	LineTotal decimal.Decimal
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции. Позиции принадлежат
// исключительно заказу и живут только внутри его транзакционной границы.
type Order struct {
	ID             string
	Number         string
	ClientID       string
	Status         OrderStatus
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	Total          decimal.Decimal
	Address        Address
	ShippingMethod ShippingMethod
	Items          []OrderItem
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AddItem добавляет позицию с уже снятой ценой. На один товар допускается не
// более одной позиции.
func (o *Order) AddItem(id, productID string, quantity int32, unitPrice decimal.Decimal) error {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return ErrDuplicateProduct
		}
	}

	lineTotal, err := LineTotal(quantity, unitPrice)
	if err != nil {
		return err
	}

	o.Items = append(o.Items, OrderItem{
		ID:        id,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice.Round(MoneyScale),
		LineTotal: lineTotal,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// RemoveAllItems очищает набор позиций. Используется только внутри транзакции
// обновления перед полной заменой набора.
func (o *Order) RemoveAllItems() {
	o.Items = nil
}

// Recalculate пересчитывает subtotal и total по текущим позициям и доставке.
// Идемпотентен; вызывается после любого изменения набора позиций.
func (o *Order) Recalculate() error {
	subtotal, total, err := OrderTotals(o.Items, o.ShippingCost)
	if err != nil {
		return err
	}
	o.Subtotal = subtotal
	o.Total = total
	return nil
}

// SetStatus проверяет допустимость перехода и меняет статус. Никаких других
// эффектов у метода нет.
func (o *Order) SetStatus(next OrderStatus) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	o.Status = next
	return nil
}

// TotalItemsSold возвращает суммарное количество единиц товара в заказе.
func (o *Order) TotalItemsSold() int32 {
	var total int32
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// ValidateInvariants проверяет инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ClientID == "" {
		errs = append(errs, ErrClientRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrEmptyOrder)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrInvalidStatus)
	}
	if !o.ShippingMethod.Valid() {
		errs = append(errs, ErrInvalidShippingMethod)
	}
	if !o.Address.Complete() {
		errs = append(errs, ErrAddressIncomplete)
	}
	if o.ShippingCost.IsNegative() {
		errs = append(errs, ErrInvalidShipping)
	}
	if o.Number != "" {
		if _, err := ParseOrderNumber(o.Number); err != nil {
			errs = append(errs, ErrNumberFormat)
		}
	}

	// Сверяем заявленные суммы с пересчитанными по позициям.
	subtotal := decimal.Zero
	for _, item := range o.Items {
		if item.Quantity < 1 {
			errs = append(errs, ErrInvalidQuantity)
		}
		if item.UnitPrice.LessThan(MinUnitPrice) {
			errs = append(errs, ErrInvalidPrice)
		}
		if !item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)).Round(MoneyScale)) {
			errs = append(errs, ErrSubtotalMismatch)
			continue
		}
		subtotal = subtotal.Add(item.LineTotal)
	}
	if !o.Subtotal.Equal(subtotal.Round(MoneyScale)) {
		errs = append(errs, ErrSubtotalMismatch)
	}
	if !o.Total.Equal(o.Subtotal.Add(o.ShippingCost).Round(MoneyScale)) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
