package handler

import (
	"errors"
	"net/http"

	"eduvista/internal/metrics"
	"eduvista/internal/model"
	"eduvista/internal/navigation"
	"eduvista/internal/policy"
	"eduvista/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles login, registration and logout for the calling client
type AuthHandler struct {
	nav    *navigation.Model
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(nav *navigation.Model, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{nav: nav, logger: logger}
}

func (h *AuthHandler) Login(c *gin.Context) {
	cl, ok := clientOrAbort(c, h.logger)
	if !ok {
		return
	}

	var req model.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if !cl.Sessions.Begin() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": errSubmissionPending})
		return
	}
	defer cl.Sessions.End()

	user, err := cl.Sessions.Login(c.Request.Context(), req)
	if err != nil {
		h.writeAuthError(c, "login", err)
		return
	}
	metrics.RecordAuth("login", "ok")

	c.JSON(http.StatusOK, gin.H{
		"message":  "Inicio de sesión exitoso",
		"user":     user,
		"token":    sessionToken(cl),
		"redirect": cl.Guard.ResumePath(),
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	cl, ok := clientOrAbort(c, h.logger)
	if !ok {
		return
	}

	var req model.RegisterForm
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if !cl.Sessions.Begin() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": errSubmissionPending})
		return
	}
	defer cl.Sessions.End()

	user, err := cl.Sessions.Register(c.Request.Context(), req)
	if err != nil {
		h.writeAuthError(c, "register", err)
		return
	}
	metrics.RecordAuth("register", "ok")
	cl.Guard.Forget()

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Registro exitoso",
		"user":     user,
		"token":    sessionToken(cl),
		"redirect": policy.HomePath,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	cl, ok := clientOrAbort(c, h.logger)
	if !ok {
		return
	}
	cl.Sessions.Logout()
	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada", "redirect": policy.LoginPath})
}

// Me returns the current user together with the header/sidebar payload.
func (h *AuthHandler) Me(c *gin.Context) {
	cl, ok := clientOrAbort(c, h.logger)
	if !ok {
		return
	}
	cl.Sessions.Revalidate(c.Request.Context())
	user := cl.Sessions.CurrentUser()
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No hay sesión activa", "pending": cl.Sessions.Pending()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "menu": h.nav.Menu(user)})
}

// writeAuthError turns form-level failures into user-visible messages.
func (h *AuthHandler) writeAuthError(c *gin.Context, action string, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrDuplicateUsername):
		status, code = http.StatusConflict, "duplicate_username"
	case errors.Is(err, service.ErrPasswordMismatch):
		status, code = http.StatusBadRequest, "password_mismatch"
	case errors.Is(err, service.ErrMissingRole):
		status, code = http.StatusBadRequest, "missing_role"
	case errors.Is(err, service.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	}
	metrics.RecordAuth(action, code)

	if status == http.StatusInternalServerError {
		h.logger.Error("auth request failed", zap.String("action", action), zap.Error(err))
		c.JSON(status, gin.H{"error": "Error al procesar la solicitud", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)
	}
}
