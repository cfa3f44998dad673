package middleware

import (
	"net/http"

	"eduvista/internal/guard"
	"eduvista/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const DecisionKey = "guardDecision"

// RouteGuard evaluates the route guard for the view path in the ":path"
// wildcard. Only Render decisions reach the next handler; every other outcome
// is answered here with the place the view should navigate to.
func RouteGuard(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, err := GetClient(c)
		if err != nil {
			logger.Error("route guard without client", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		path := c.Param("path")
		if path == "" {
			path = "/"
		}

		cl.Sessions.Revalidate(c.Request.Context())
		d := cl.Guard.Evaluate(path)
		metrics.GuardDecisions.WithLabelValues(string(d.Outcome)).Inc()

		switch d.Outcome {
		case guard.Render:
			c.Set(DecisionKey, d)
			c.Next()
		case guard.RedirectToLogin:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"outcome":  d.Outcome,
				"location": d.Location,
				"from":     path,
			})
		case guard.RedirectToFallback:
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"outcome":  d.Outcome,
				"location": d.Location,
			})
		case guard.Redirect:
			c.AbortWithStatusJSON(http.StatusOK, gin.H{
				"outcome":  d.Outcome,
				"location": d.Location,
			})
		default:
			logger.Error("unknown guard outcome", zap.String("outcome", string(d.Outcome)))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"outcome": guard.RedirectToFallback, "location": "/404"})
		}
	}
}

// GetDecision returns the Render decision stored by RouteGuard.
func GetDecision(c *gin.Context) (guard.Decision, bool) {
	val, exists := c.Get(DecisionKey)
	if !exists {
		return guard.Decision{}, false
	}
	d, ok := val.(guard.Decision)
	return d, ok
}
