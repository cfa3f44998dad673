package middleware

import (
	"errors"
	"net/http"

	"eduvista/internal/client"

	"github.com/gin-gonic/gin"
)

const (
	ClientKey        = "client"
	ClientCookieName = "eduvista_client"
	ClientHeaderName = "X-Client-ID"
)

// ClientMiddleware attaches the caller's client (session store + guard) to
// the request, issuing a client cookie on first contact.
func ClientMiddleware(registry *client.Registry, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ClientHeaderName)
		if id == "" {
			id, _ = c.Cookie(ClientCookieName)
		}

		cl := registry.Open(c.Request.Context(), id)
		if cl.ID != id {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientCookieName, cl.ID, 0, "/", "", secureCookie, true)
		}
		c.Header(ClientHeaderName, cl.ID)
		c.Set(ClientKey, cl)
		c.Next()
	}
}

// GetClient returns the client set by ClientMiddleware.
func GetClient(c *gin.Context) (*client.Client, error) {
	val, exists := c.Get(ClientKey)
	if !exists {
		return nil, errors.New("client not found in context, ensure ClientMiddleware runs first")
	}
	cl, ok := val.(*client.Client)
	if !ok {
		return nil, errors.New("invalid client type in context")
	}
	return cl, nil
}
