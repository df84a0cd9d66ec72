package handlers

import (
	"net/http"

	"supply_manager/internal/logger"
	"supply_manager/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userService services.UserService
}

func NewAuthHandler(userService services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	logger.FromGin(c).Info("User registered", zap.String("email", req.Email))
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.userService.Me(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Admin user management

func (h *AuthHandler) GetUsers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	users, err := h.userService.GetAllUsers(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "User")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "User")
	if !ok {
		return
	}
	var req services.UserUpdate
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), p, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
