package middleware

import (
	"context"
	"strings"

	"supply_manager/internal/apperr"
	"supply_manager/internal/logger"
	"supply_manager/internal/policy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Authenticator resolves a bearer token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (policy.Principal, error)
}

// Auth rejects the request unless it carries a valid token. The token is read from
// "Authorization: Bearer <token>" or, failing that, the x-auth-token header.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			AbortWithError(c, apperr.Unauthenticated("No token, authorization denied"))
			return
		}

		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.FromGin(c).Warn("Authentication failed", zap.Error(err))
			AbortWithError(c, err)
			return
		}

		c.Set(principalKey, p)
		logger.Attach(c, logger.FromGin(c).With(
			zap.Uint("user_id", p.UserID),
			zap.String("role", string(p.Role))))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if token := c.GetHeader("x-auth-token"); token != "" {
		return token, true
	}
	return "", false
}

// Principal returns the caller set by Auth.
func Principal(c *gin.Context) (policy.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return policy.Principal{}, false
	}
	p, ok := v.(policy.Principal)
	return p, ok
}
