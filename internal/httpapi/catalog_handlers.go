package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rodrigofontes/vendaspro/internal/domain"
	"github.com/rodrigofontes/vendaspro/internal/service/catalog"
	"github.com/rodrigofontes/vendaspro/internal/service/order"
)

// CatalogHandler обслуживает справочники клиентов и товаров.
// Статистика клиента считается сервисом заказов.
type CatalogHandler struct {
	catalog *catalog.Service
	orders  *order.Service
}

// NewCatalogHandler создаёт handler справочников.
func NewCatalogHandler(catalogService *catalog.Service, orderService *order.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService, orders: orderService}
}

// CreateClient обрабатывает POST /clients.
func (h *CatalogHandler) CreateClient(c *gin.Context) {
	var payload clientRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "invalid client payload")
		return
	}

	created, err := h.catalog.CreateClient(catalog.ClientInput{
		Name:    payload.Name,
		Email:   payload.Email,
		Contact: payload.Contact,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clientFromDomain(created))
}

// GetClient обрабатывает GET /clients/:id.
func (h *CatalogHandler) GetClient(c *gin.Context) {
	client, err := h.catalog.GetClient(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, clientFromDomain(client))
}

// ListClients обрабатывает GET /clients.
func (h *CatalogHandler) ListClients(c *gin.Context) {
	clients, err := h.catalog.ListClients()
	if err != nil {
		writeDomainError(c, err)
		return
	}

	result := make([]clientResponse, 0, len(clients))
	for _, client := range clients {
		result = append(result, clientFromDomain(client))
	}
	c.JSON(http.StatusOK, result)
}

// UpdateClient обрабатывает PUT /clients/:id.
func (h *CatalogHandler) UpdateClient(c *gin.Context) {
	var payload clientRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "invalid client payload")
		return
	}

	updated, err := h.catalog.UpdateClient(c.Param("id"), catalog.ClientInput{
		Name:    payload.Name,
		Email:   payload.Email,
		Contact: payload.Contact,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, clientFromDomain(updated))
}

// DeleteClient обрабатывает DELETE /clients/:id.
func (h *CatalogHandler) DeleteClient(c *gin.Context) {
	if err := h.catalog.DeleteClient(c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClientStats обрабатывает GET /clients/:id/statistics.
func (h *CatalogHandler) ClientStats(c *gin.Context) {
	clientID := c.Param("id")
	stats, err := h.orders.ClientStats(clientID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, clientStatsResponse{
		ClientID:   clientID,
		OrderCount: stats.OrderCount,
		TotalSpent: stats.TotalSpent.StringFixed(domain.MoneyScale),
	})
}

// CreateProduct обрабатывает POST /products.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	input, ok := bindProductInput(c)
	if !ok {
		return
	}

	created, err := h.catalog.CreateProduct(input)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, productFromDomain(created))
}

// GetProduct обрабатывает GET /products/:id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, productFromDomain(product))
}

// ListProducts обрабатывает GET /products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts()
	if err != nil {
		writeDomainError(c, err)
		return
	}

	result := make([]productResponse, 0, len(products))
	for _, product := range products {
		result = append(result, productFromDomain(product))
	}
	c.JSON(http.StatusOK, result)
}

// UpdateProduct обрабатывает PUT /products/:id.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	input, ok := bindProductInput(c)
	if !ok {
		return
	}

	updated, err := h.catalog.UpdateProduct(c.Param("id"), input)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, productFromDomain(updated))
}

// DeleteProduct обрабатывает DELETE /products/:id.
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindProductInput(c *gin.Context) (catalog.ProductInput, bool) {
	var payload productRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "invalid product payload")
		return catalog.ProductInput{}, false
	}

	price, ok := parseMoney(payload.Price)
	if !ok {
		writeBadRequest(c, "invalid price")
		return catalog.ProductInput{}, false
	}

	return catalog.ProductInput{
		Name:   payload.Name,
		Price:  price,
		Active: payload.Active,
	}, true
}
