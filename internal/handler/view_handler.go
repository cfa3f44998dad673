package handler

import (
	"net/http"

	"eduvista/internal/events"
	"eduvista/internal/guard"
	"eduvista/internal/middleware"
	"eduvista/internal/navigation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ViewHandler serves the guarded views, the menu and the session event stream
type ViewHandler struct {
	nav    *navigation.Model
	hub    *events.Hub
	logger *zap.Logger
}

// NewViewHandler creates a new ViewHandler
func NewViewHandler(nav *navigation.Model, hub *events.Hub, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{nav: nav, hub: hub, logger: logger}
}

// Render answers a view request that passed the route guard.
func (h *ViewHandler) Render(c *gin.Context) {
	cl, ok := clientOrAbort(c, h.logger)
	if !ok {
		return
	}
	d, ok := middleware.GetDecision(c)
	if !ok {
		h.logger.Error("view rendered without guard decision", zap.String("path", c.Param("path")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome": guard.Render,
		"path":    d.Route.Path,
		"title":   d.Route.Title,
		"menu":    h.nav.Menu(cl.Sessions.CurrentUser()),
	})
}

// Navigation returns the sidebar for the current user, empty before login.
func (h *ViewHandler) Navigation(c *gin.Context) {
	cl, ok := clientOrAbort(c, h.logger)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.nav.Menu(cl.Sessions.CurrentUser()))
}

// Events upgrades to a websocket that streams session changes. The client
// is kept out of idle sweeps while the stream is open.
func (h *ViewHandler) Events(c *gin.Context) {
	cl, ok := clientOrAbort(c, h.logger)
	if !ok {
		return
	}
	release := cl.Hold()
	defer release()
	if err := h.hub.Serve(c.Writer, c.Request, cl.Sessions); err != nil {
		h.logger.Debug("websocket upgrade failed", zap.String("client_id", cl.ID), zap.Error(err))
	}
}

// RegisterViewRoutes registers the guarded view routes, the menu and the event stream
func (h *ViewHandler) RegisterViewRoutes(rg *gin.RouterGroup, guardMW gin.HandlerFunc) {
	rg.GET("/views/*path", guardMW, h.Render)
	rg.GET("/navigation", h.Navigation)
	rg.GET("/session/events", h.Events)
}
