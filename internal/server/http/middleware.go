package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error(c.Request.Context(), "http request", args...)
			return
		}
		s.logger.Info(c.Request.Context(), "http request", args...)
	}
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on WebSocket upgrades, so the access_token query parameter is
// accepted as well.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		t := c.Query("access_token")
		return t, t != ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (s *HTTPServer) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "authorization required"})
			return
		}

		id, err := s.users.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := identity(c); !ok || !id.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "admin role required"})
			return
		}
		c.Next()
	}
}
