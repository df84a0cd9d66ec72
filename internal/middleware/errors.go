package middleware

import (
	"supply_manager/internal/apperr"
	"supply_manager/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AbortWithError renders err as {"msg": ...} with the status of its kind.
// Internal errors are logged in full and reach the caller as a generic message.
func AbortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.FromGin(c).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{"msg": apperr.Message(err)})
}
