package domain

import "github.com/shopspring/decimal"

// MoneyScale — число знаков после запятой для денежных сумм.
const MoneyScale = 2

// MinUnitPrice — минимально допустимая цена за единицу товара.
var MinUnitPrice = decimal.New(1, -MoneyScale)

// LineTotal вычисляет стоимость позиции: quantity * unitPrice с округлением
// half-up до двух знаков. Чистая функция без побочных эффектов.
func LineTotal(quantity int32, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Decimal{}, ErrInvalidQuantity
	}
	if unitPrice.LessThan(MinUnitPrice) {
		return decimal.Decimal{}, ErrInvalidPrice
	}
	return unitPrice.Mul(decimal.NewFromInt32(quantity)).Round(MoneyScale), nil
}

// OrderTotals считает subtotal и total заказа. Стоимость каждой позиции
// пересчитывается через LineTotal, а не берётся на веру из самой позиции.
func OrderTotals(items []OrderItem, shippingCost decimal.Decimal) (subtotal, total decimal.Decimal, err error) {
	if shippingCost.IsNegative() {
		return decimal.Decimal{}, decimal.Decimal{}, ErrInvalidShipping
	}

	subtotal = decimal.Zero
	for _, item := range items {
		lineTotal, err := LineTotal(item.Quantity, item.UnitPrice)
		if err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, err
		}
		subtotal = subtotal.Add(lineTotal)
	}

	subtotal = subtotal.Round(MoneyScale)
	total = subtotal.Add(shippingCost).Round(MoneyScale)
	return subtotal, total, nil
}
