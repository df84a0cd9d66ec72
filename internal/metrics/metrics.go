package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Order workflow metrics
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders placed",
	})

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Total number of order status changes by target status",
		},
		[]string{"status"},
	)

	StockRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_rejections_total",
		Help: "Total number of orders rejected for insufficient stock",
	})

	// Delivery workflow metrics
	DeliveryTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_status_transitions_total",
			Help: "Total number of delivery status changes by target status",
		},
		[]string{"status"},
	)
)

// RecordOrderTransition increments the order transition counter
func RecordOrderTransition(status string) {
	OrderTransitions.WithLabelValues(status).Inc()
}

// RecordDeliveryTransition increments the delivery transition counter
func RecordDeliveryTransition(status string) {
	DeliveryTransitions.WithLabelValues(status).Inc()
}

// Middleware records request count and duration per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
