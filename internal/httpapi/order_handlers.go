package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rodrigofontes/vendaspro/internal/domain"
	"github.com/rodrigofontes/vendaspro/internal/service/order"
)

// OrderHandler обслуживает HTTP-операции над заказами.
type OrderHandler struct {
	service *order.Service
}

// NewOrderHandler создаёт handler заказов.
func NewOrderHandler(service *order.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create обрабатывает POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var payload createOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "invalid order payload")
		return
	}

	shippingCost, ok := parseMoney(payload.ShippingCost)
	if !ok {
		writeBadRequest(c, "invalid shipping_cost")
		return
	}
	specs, ok := toItemSpecs(payload.Items)
	if !ok {
		writeBadRequest(c, "invalid item unit_price")
		return
	}

	created, err := h.service.Create(order.CreateInput{
		ClientID:       payload.ClientID,
		Address:        payload.Address.toDomain(),
		ShippingMethod: domain.ShippingMethod(payload.ShippingMethod),
		ShippingCost:   shippingCost,
		Items:          specs,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, orderFromDomain(created))
}

// Get обрабатывает GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	got, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderFromDomain(got))
}

// List обрабатывает GET /orders с фильтрами status, client_name, number, limit.
func (h *OrderHandler) List(c *gin.Context) {
	filter := domain.OrderFilter{
		Status:             domain.OrderStatus(c.Query("status")),
		ClientNameContains: c.Query("client_name"),
		NumberContains:     c.Query("number"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeBadRequest(c, "unknown status filter")
		return
	}

	var limitQuery struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&limitQuery); err != nil || limitQuery.Limit < 0 {
		writeBadRequest(c, "invalid limit")
		return
	}
	filter.Limit = limitQuery.Limit

	orders, err := h.service.List(filter)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersFromDomain(orders))
}

// Update обрабатывает PUT /orders/:id.
func (h *OrderHandler) Update(c *gin.Context) {
	var payload updateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "invalid order payload")
		return
	}

	input := order.UpdateInput{ClientID: payload.ClientID}
	if payload.Address != nil {
		address := payload.Address.toDomain()
		input.Address = &address
	}
	if payload.ShippingMethod != nil {
		method := domain.ShippingMethod(*payload.ShippingMethod)
		input.ShippingMethod = &method
	}
	if payload.ShippingCost != nil {
		cost, ok := parseMoney(*payload.ShippingCost)
		if !ok {
			writeBadRequest(c, "invalid shipping_cost")
			return
		}
		input.ShippingCost = &cost
	}
	if payload.Items != nil {
		specs, ok := toItemSpecs(*payload.Items)
		if !ok {
			writeBadRequest(c, "invalid item unit_price")
			return
		}
		input.Items = specs
		if input.Items == nil {
			input.Items = []order.ItemSpec{}
		}
	}

	updated, err := h.service.Update(c.Param("id"), input)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderFromDomain(updated))
}

// ChangeStatus обрабатывает PATCH /orders/:id/status.
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	var payload changeStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "invalid status payload")
		return
	}

	updated, err := h.service.ChangeStatus(c.Param("id"), domain.OrderStatus(payload.Status))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderFromDomain(updated))
}

// History обрабатывает GET /orders/:id/history.
func (h *OrderHandler) History(c *gin.Context) {
	events, err := h.service.History(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyFromDomain(events))
}
