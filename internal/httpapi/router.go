package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RouterConfig собирает зависимости HTTP API.
type RouterConfig struct {
	Orders    *OrderHandler
	Catalog   *CatalogHandler
	Verifier  TokenVerifier
	Liveness  http.Handler
	Readiness http.Handler
	Logger    *log.Entry
}

// NewRouter строит gin-роутер со всеми маршрутами API.
// Health-эндпоинты остаются вне авторизации.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Logger != nil {
		router.Use(requestLogger(cfg.Logger))
	}

	if cfg.Liveness != nil {
		router.GET("/healthz", gin.WrapH(cfg.Liveness))
	}
	if cfg.Readiness != nil {
		router.GET("/readyz", gin.WrapH(cfg.Readiness))
	}

	api := router.Group("/api/v1")
	api.Use(AuthMiddleware(cfg.Verifier))

	if cfg.Orders != nil {
		orders := api.Group("/orders")
		orders.POST("", cfg.Orders.Create)
		orders.GET("", cfg.Orders.List)
		orders.GET("/:id", cfg.Orders.Get)
		orders.PUT("/:id", cfg.Orders.Update)
		orders.PATCH("/:id/status", cfg.Orders.ChangeStatus)
		orders.GET("/:id/history", cfg.Orders.History)
	}

	if cfg.Catalog != nil {
		clients := api.Group("/clients")
		clients.POST("", cfg.Catalog.CreateClient)
		clients.GET("", cfg.Catalog.ListClients)
		clients.GET("/:id", cfg.Catalog.GetClient)
		clients.PUT("/:id", cfg.Catalog.UpdateClient)
		clients.DELETE("/:id", cfg.Catalog.DeleteClient)
		clients.GET("/:id/statistics", cfg.Catalog.ClientStats)

		products := api.Group("/products")
		products.POST("", cfg.Catalog.CreateProduct)
		products.GET("", cfg.Catalog.ListProducts)
		products.GET("/:id", cfg.Catalog.GetProduct)
		products.PUT("/:id", cfg.Catalog.UpdateProduct)
		products.DELETE("/:id", cfg.Catalog.DeleteProduct)
	}

	return router
}

// requestLogger пишет одну строку на запрос.
func requestLogger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("http request")
	}
}
