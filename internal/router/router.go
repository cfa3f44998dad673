package router

import (
	"context"
	"net/http"

	"eduvista/internal/client"
	"eduvista/internal/handler"
	"eduvista/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the components the HTTP surface is wired to.
type Deps struct {
	Registry     *client.Registry
	Auth         *handler.AuthHandler
	Views        *handler.ViewHandler
	Logger       *zap.Logger
	SecureCookie bool
	CORSOrigin   string
	// Health reports dependency health; nil means always healthy.
	Health func(ctx context.Context) error
}

// New builds the gin engine with every route registered.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.CORS(d.CORSOrigin))

	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "directory": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "directory": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.ClientMiddleware(d.Registry, d.SecureCookie))
	d.Auth.RegisterAuthRoutes(api)
	d.Views.RegisterViewRoutes(api, middleware.RouteGuard(d.Logger))

	return r
}
