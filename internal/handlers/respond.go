package handlers

import (
	"strconv"

	"supply_manager/internal/apperr"
	"supply_manager/internal/middleware"
	"supply_manager/internal/policy"

	"github.com/gin-gonic/gin"
)

func fail(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the body into dest and answers 400 when it cannot.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		fail(c, apperr.Validation("Invalid request format"))
		return false
	}
	return true
}

// paramID parses a positive numeric path parameter. Anything else is reported as
// not found, the way an unknown id would be.
func paramID(c *gin.Context, name, entity string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, apperr.NotFound(entity))
		return 0, false
	}
	return uint(id), true
}

func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		fail(c, apperr.Validationf("Invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// principal returns the caller resolved by the auth middleware.
func principal(c *gin.Context) (policy.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		fail(c, apperr.Unauthenticated("No token, authorization denied"))
	}
	return p, ok
}
