package middleware

import (
	"supply_manager/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestID tags every request with an id and a logger carrying it. An id sent by
// the caller is kept.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(logger.RequestIDKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Request.Header.Set(logger.RequestIDKey, requestID)
		c.Header(logger.RequestIDKey, requestID)
		c.Set(logger.RequestIDKey, requestID)

		logger.Attach(c, zap.L().With(zap.String("request_id", requestID)))
		c.Next()
	}
}
