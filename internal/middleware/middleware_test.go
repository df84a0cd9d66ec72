package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"supply_manager/internal/apperr"
	"supply_manager/internal/logger"
	"supply_manager/internal/models"
	"supply_manager/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth map[string]policy.Principal

func (s stubAuth) Authenticate(_ context.Context, token string) (policy.Principal, error) {
	p, ok := s[token]
	if !ok {
		return policy.Principal{}, apperr.Unauthenticated("Token is not valid")
	}
	return p, nil
}

func newRouter(auth Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog())
	r.GET("/whoami", Auth(auth), func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.UserID, "role": p.Role})
	})
	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, apperr.Internal(assert.AnError))
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	r := newRouter(stubAuth{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDKey))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(logger.RequestIDKey, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(logger.RequestIDKey))
}

func TestAuth(t *testing.T) {
	r := newRouter(stubAuth{"good": {UserID: 7, Role: models.RoleFournisseur}})

	tests := []struct {
		name   string
		header string
		value  string
		status int
		msg    string
	}{
		{"missing token", "", "", http.StatusUnauthorized, "No token, authorization denied"},
		{"malformed header", "Authorization", "Token good", http.StatusUnauthorized, "No token, authorization denied"},
		{"unknown token", "Authorization", "Bearer bad", http.StatusUnauthorized, "Token is not valid"},
		{"bearer", "Authorization", "Bearer good", http.StatusOK, ""},
		{"lowercase bearer", "Authorization", "bearer good", http.StatusOK, ""},
		{"x-auth-token", "x-auth-token", "good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, body["msg"])
				return
			}
			assert.Equal(t, float64(7), body["id"])
			assert.Equal(t, "fournisseur", body["role"])
		})
	}
}

func TestAbortWithErrorHidesInternalDetail(t *testing.T) {
	r := newRouter(stubAuth{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]interface{}{"msg": "Server error"}, decode(t, w))
}
