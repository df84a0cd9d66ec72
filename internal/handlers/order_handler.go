package handlers

import (
	"net/http"

	"supply_manager/internal/logger"
	"supply_manager/internal/models"
	"supply_manager/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService services.OrderService
	statsService services.StatsService
}

func NewOrderHandler(orderService services.OrderService, statsService services.StatsService) *OrderHandler {
	return &OrderHandler{orderService: orderService, statsService: statsService}
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	orders, err := h.orderService.GetOrders(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), p, req)
	if err != nil {
		logger.FromGin(c).Info("Order rejected", zap.Error(err))
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Order")
	if !ok {
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), p, id, req.Status)
	if err != nil {
		fail(c, err)
		return
	}

	logger.FromGin(c).Info("Order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)))
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrderDelivery(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Order")
	if !ok {
		return
	}

	delivery, err := h.orderService.GetOrderDelivery(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func (h *OrderHandler) GetSupplierStats(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	stats, err := h.statsService.SupplierStats(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
