package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rodrigofontes/vendaspro/internal/domain"
	"github.com/rodrigofontes/vendaspro/internal/service/order"
)

// Денежные суммы ходят по проводу строками с двумя знаками после запятой.

type addressPayload struct {
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	State      string `json:"state"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
}

func (p addressPayload) toDomain() domain.Address {
	return domain.Address{
		PostalCode: p.PostalCode,
		City:       p.City,
		State:      p.State,
		Street:     p.Street,
		Number:     p.Number,
		Complement: p.Complement,
	}
}

func addressFromDomain(a domain.Address) addressPayload {
	return addressPayload{
		PostalCode: a.PostalCode,
		City:       a.City,
		State:      a.State,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
	}
}

type orderItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int32   `json:"quantity"`
	UnitPrice *string `json:"unit_price,omitempty"`
}

type createOrderRequest struct {
	ClientID       string             `json:"client_id" binding:"required"`
	ShippingMethod string             `json:"shipping_method" binding:"required"`
	ShippingCost   string             `json:"shipping_cost"`
	Address        addressPayload     `json:"address"`
	Items          []orderItemRequest `json:"items" binding:"required"`
}

type updateOrderRequest struct {
	ClientID       *string             `json:"client_id,omitempty"`
	ShippingMethod *string             `json:"shipping_method,omitempty"`
	ShippingCost   *string             `json:"shipping_cost,omitempty"`
	Address        *addressPayload     `json:"address,omitempty"`
	Items          *[]orderItemRequest `json:"items,omitempty"`
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func parseMoney(value string) (decimal.Decimal, bool) {
	if value == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func toItemSpecs(requests []orderItemRequest) ([]order.ItemSpec, bool) {
	specs := make([]order.ItemSpec, 0, len(requests))
	for _, r := range requests {
		spec := order.ItemSpec{ProductID: r.ProductID, Quantity: r.Quantity}
		if r.UnitPrice != nil {
			price, ok := parseMoney(*r.UnitPrice)
			if !ok {
				return nil, false
			}
			spec.UnitPrice = &price
		}
		specs = append(specs, spec)
	}
	return specs, true
}

type orderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	Number         string              `json:"number"`
	ClientID       string              `json:"client_id"`
	Status         string              `json:"status"`
	Subtotal       string              `json:"subtotal"`
	ShippingCost   string              `json:"shipping_cost"`
	Total          string              `json:"total"`
	ShippingMethod string              `json:"shipping_method"`
	Address        addressPayload      `json:"address"`
	Items          []orderItemResponse `json:"items"`
	TotalItemsSold int32               `json:"total_items_sold"`
	Version        int64               `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func orderFromDomain(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(domain.MoneyScale),
			LineTotal: item.LineTotal.StringFixed(domain.MoneyScale),
		})
	}
	return orderResponse{
		ID:             o.ID,
		Number:         o.Number,
		ClientID:       o.ClientID,
		Status:         string(o.Status),
		Subtotal:       o.Subtotal.StringFixed(domain.MoneyScale),
		ShippingCost:   o.ShippingCost.StringFixed(domain.MoneyScale),
		Total:          o.Total.StringFixed(domain.MoneyScale),
		ShippingMethod: string(o.ShippingMethod),
		Address:        addressFromDomain(o.Address),
		Items:          items,
		TotalItemsSold: o.TotalItemsSold(),
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func ordersFromDomain(orders []domain.Order) []orderResponse {
	result := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, orderFromDomain(o))
	}
	return result
}

type historyEventResponse struct {
	Type     string    `json:"type"`
	Detail   string    `json:"detail,omitempty"`
	Occurred time.Time `json:"occurred"`
}

func historyFromDomain(events []domain.HistoryEvent) []historyEventResponse {
	result := make([]historyEventResponse, 0, len(events))
	for _, event := range events {
		result = append(result, historyEventResponse{
			Type:     event.Type,
			Detail:   event.Detail,
			Occurred: event.Occurred,
		})
	}
	return result
}

type clientRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Contact string `json:"contact,omitempty"`
}

type clientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Contact   string    `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func clientFromDomain(c domain.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Contact:   c.Contact,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type clientStatsResponse struct {
	ClientID   string `json:"client_id"`
	OrderCount int64  `json:"order_count"`
	TotalSpent string `json:"total_spent"`
}

type productRequest struct {
	Name   string `json:"name" binding:"required"`
	Price  string `json:"price" binding:"required"`
	Active *bool  `json:"active,omitempty"`
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func productFromDomain(p domain.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(domain.MoneyScale),
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
