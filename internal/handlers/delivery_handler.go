package handlers

import (
	"net/http"

	"supply_manager/internal/logger"
	"supply_manager/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DeliveryHandler struct {
	deliveryService services.DeliveryService
	statsService    services.StatsService
}

func NewDeliveryHandler(deliveryService services.DeliveryService, statsService services.StatsService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService, statsService: statsService}
}

func (h *DeliveryHandler) GetDeliveries(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	deliveries, err := h.deliveryService.GetDeliveries(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Delivery")
	if !ok {
		return
	}

	delivery, err := h.deliveryService.GetDelivery(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.CreateDeliveryInput
	if !bindJSON(c, &req) {
		return
	}

	delivery, err := h.deliveryService.CreateDelivery(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) UpdateDeliveryStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Delivery")
	if !ok {
		return
	}
	var req services.UpdateDeliveryStatusInput
	if !bindJSON(c, &req) {
		return
	}

	delivery, err := h.deliveryService.UpdateDeliveryStatus(c.Request.Context(), p, id, req)
	if err != nil {
		fail(c, err)
		return
	}

	logger.FromGin(c).Info("Delivery status changed",
		zap.String("tracking_number", delivery.TrackingNumber),
		zap.String("status", string(delivery.Status)))
	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) SetSignature(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Delivery")
	if !ok {
		return
	}
	var req struct {
		Signature string `json:"signature"`
	}
	if !bindJSON(c, &req) {
		return
	}

	delivery, err := h.deliveryService.SetSignature(c.Request.Context(), p, id, req.Signature)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) GetDelivererStats(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	stats, err := h.statsService.DelivererStats(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
