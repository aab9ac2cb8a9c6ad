package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product — товар каталога. Цена служит источником snapshot-а для позиций
// заказа и после снятия не перечитывается.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate выполняет простую проверку полей товара.
func (p *Product) Validate() []error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.Price.LessThan(MinUnitPrice) {
		errs = append(errs, ErrInvalidPrice)
	}
	return errs
}
