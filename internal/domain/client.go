package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client — покупатель, на которого оформляются заказы.
type Client struct {
	ID        string
	Name      string
	Email     string
	Contact   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate выполняет простую проверку полей клиента.
func (c *Client) Validate() []error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, ErrClientNameRequired)
	}
	if strings.TrimSpace(c.Email) == "" {
		errs = append(errs, ErrClientEmailRequired)
	}
	return errs
}

// ClientStats — живая агрегация по заказам клиента: количество и общая сумма.
// Пересчитывается при каждом чтении, кэшируемых счётчиков нет.
type ClientStats struct {
	OrderCount int64
	TotalSpent decimal.Decimal
}
