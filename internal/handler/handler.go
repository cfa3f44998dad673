package handler

import (
	"net/http"

	"eduvista/internal/client"
	"eduvista/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const errSubmissionPending = "Ya hay una solicitud en curso"

func clientOrAbort(c *gin.Context, logger *zap.Logger) (*client.Client, bool) {
	cl, err := middleware.GetClient(c)
	if err != nil {
		logger.Error("handler without client", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return cl, true
}

func sessionToken(cl *client.Client) string {
	if cur := cl.Sessions.Current(); cur != nil {
		return cur.Token
	}
	return ""
}
