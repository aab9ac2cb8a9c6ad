package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrClientRequired = errors.New("client_id is required")
	// Ошибка создания заказа без единой позиции.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// Ошибка количества меньше единицы.
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")
	// Ошибка цены за единицу ниже минимальной (0.01).
	ErrInvalidPrice = errors.New("unit price must be at least 0.01")
	// Ошибка отрицательной стоимости доставки.
	ErrInvalidShipping = errors.New("shipping cost must be non-negative")
	// Ошибка повторного товара в рамках одного заказа.
	ErrDuplicateProduct = errors.New("order already contains an item for this product")
	// Ошибка неизвестного статуса заказа.
	ErrInvalidStatus = errors.New("unknown order status")
	// Ошибка запрещённого перехода статуса.
	ErrInvalidStatusTransition = errors.New("status transition is not allowed")
	// Ошибка неизвестного метода доставки.
	ErrInvalidShippingMethod = errors.New("unknown shipping method")
	// Ошибка неполного адреса доставки.
	ErrAddressIncomplete = errors.New("shipping address is incomplete")
	// Ошибка несоответствия subtotal сумме позиций.
	ErrSubtotalMismatch = errors.New("order subtotal does not match items sum")
	// Ошибка несоответствия total сумме subtotal и доставки.
	ErrTotalMismatch = errors.New("order total does not match subtotal plus shipping")
	// Ошибка формата номера заказа.
	ErrNumberFormat = errors.New("order number must match #NNNNN")
	// Ошибка отсутствующего имени клиента.
	ErrClientNameRequired = errors.New("client name is required")
	// Ошибка отсутствующего email клиента.
	ErrClientEmailRequired = errors.New("client email is required")
	// Ошибка уже занятого email клиента.
	ErrClientEmailTaken = errors.New("client email is already taken")
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = errors.New("product name is required")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrClientNotFound возвращается, если клиент не найден.
	ErrClientNotFound = errors.New("client not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrNumberConflict — номер заказа уже выдан конкурентной транзакцией; операцию нужно повторить.
	ErrNumberConflict = errors.New("order number already issued")
	// ErrClientReferenced — клиента нельзя удалить, пока на него ссылаются заказы.
	ErrClientReferenced = errors.New("client is referenced by existing orders")
	// ErrProductReferenced — товар нельзя удалить, пока на него ссылаются позиции заказов.
	ErrProductReferenced = errors.New("product is referenced by existing order items")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// ErrorKind группирует доменные ошибки для маппинга на транспортный слой.
type ErrorKind int

const (
	// KindStorage — инфраструктурная ошибка хранилища; операция полностью откатилась.
	KindStorage ErrorKind = iota
	// KindValidation — ошибка входных данных; исправляется вызывающей стороной.
	KindValidation
	// KindNotFound — запрошенная сущность отсутствует.
	KindNotFound
	// KindConflict — конкурентный конфликт; операцию имеет смысл повторить.
	KindConflict
)

var validationErrors = []error{
	ErrClientRequired,
	ErrEmptyOrder,
	ErrInvalidQuantity,
	ErrInvalidPrice,
	ErrInvalidShipping,
	ErrDuplicateProduct,
	ErrInvalidStatus,
	ErrInvalidStatusTransition,
	ErrInvalidShippingMethod,
	ErrAddressIncomplete,
	ErrSubtotalMismatch,
	ErrTotalMismatch,
	ErrNumberFormat,
	ErrClientNameRequired,
	ErrClientEmailRequired,
	ErrClientEmailTaken,
	ErrProductNameRequired,
}

var notFoundErrors = []error{
	ErrOrderNotFound,
	ErrClientNotFound,
	ErrProductNotFound,
}

var conflictErrors = []error{
	ErrOrderVersionConflict,
	ErrNumberConflict,
	ErrClientReferenced,
	ErrProductReferenced,
}

// Classify определяет категорию ошибки. Всё, что не является доменной ошибкой,
// трактуется как ошибка хранилища.
func Classify(err error) ErrorKind {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return KindValidation
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return KindNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return KindConflict
		}
	}
	return KindStorage
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsRetryableConflict сообщает, имеет ли смысл повторить операцию с новыми данными.
func IsRetryableConflict(err error) bool {
	return errors.Is(err, ErrNumberConflict) || errors.Is(err, ErrOrderVersionConflict)
}
