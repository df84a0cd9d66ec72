package handlers

import (
	"net/http"

	"supply_manager/internal/metrics"
	"supply_manager/internal/middleware"
	"supply_manager/internal/services"

	"github.com/gin-gonic/gin"
)

// Services is everything the HTTP layer talks to.
type Services struct {
	Users      services.UserService
	Catalog    services.CatalogService
	Orders     services.OrderService
	Deliveries services.DeliveryService
	Stats      services.StatsService
}

type APIHandler struct {
	auth       *AuthHandler
	catalog    *CatalogHandler
	orders     *OrderHandler
	deliveries *DeliveryHandler
	users      services.UserService
}

func NewAPIHandler(s Services) *APIHandler {
	return &APIHandler{
		auth:       NewAuthHandler(s.Users),
		catalog:    NewCatalogHandler(s.Catalog),
		orders:     NewOrderHandler(s.Orders, s.Stats),
		deliveries: NewDeliveryHandler(s.Deliveries, s.Stats),
		users:      s.Users,
	}
}

func (h *APIHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "API is running...")
}

func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Router builds the engine with every route mounted under /api.
func (h *APIHandler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), metrics.Middleware())

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	authed := middleware.Auth(h.users)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.auth.Register)
		auth.POST("/login", h.auth.Login)
		auth.GET("/me", authed, h.auth.Me)
	}

	users := api.Group("/users", authed)
	{
		users.GET("", h.auth.GetUsers)
		users.GET("/:id", h.auth.GetUser)
		users.PUT("/:id", h.auth.UpdateUser)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.catalog.GetCategories)
		categories.GET("/:id", h.catalog.GetCategory)
		categories.POST("", authed, h.catalog.CreateCategory)
		categories.PUT("/:id", authed, h.catalog.UpdateCategory)
		categories.DELETE("/:id", authed, h.catalog.DeleteCategory)
	}

	suppliers := api.Group("/suppliers", authed)
	{
		suppliers.GET("", h.catalog.GetSuppliers)
		suppliers.GET("/:id", h.catalog.GetSupplier)
		suppliers.POST("", h.catalog.CreateSupplier)
		suppliers.PUT("/:id", h.catalog.UpdateSupplier)
		suppliers.DELETE("/:id", h.catalog.DeleteSupplier)
	}

	products := api.Group("/products")
	{
		products.GET("", h.catalog.GetProducts)
		products.GET("/:id", h.catalog.GetProduct)
		products.POST("", authed, h.catalog.CreateProduct)
		products.PUT("/:id", authed, h.catalog.UpdateProduct)
		products.DELETE("/:id", authed, h.catalog.DeleteProduct)
		products.PATCH("/:id/stock", authed, h.catalog.AdjustStock)
	}

	orders := api.Group("/orders", authed)
	{
		orders.GET("/stats/supplier", h.orders.GetSupplierStats)
		orders.GET("", h.orders.GetOrders)
		orders.POST("", h.orders.CreateOrder)
		orders.GET("/:id", h.orders.GetOrder)
		orders.PUT("/:id/status", h.orders.UpdateOrderStatus)
		orders.GET("/:id/delivery", h.orders.GetOrderDelivery)
	}

	deliveries := api.Group("/deliveries", authed)
	{
		deliveries.GET("/stats/deliverer", h.deliveries.GetDelivererStats)
		deliveries.GET("", h.deliveries.GetDeliveries)
		deliveries.POST("", h.deliveries.CreateDelivery)
		deliveries.GET("/:id", h.deliveries.GetDelivery)
		deliveries.PUT("/:id/status", h.deliveries.UpdateDeliveryStatus)
		deliveries.PUT("/:id/signature", h.deliveries.SetSignature)
	}

	return router
}
