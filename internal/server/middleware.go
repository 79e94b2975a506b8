package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stackbundle/partnerhub/pkg/tenantctx"
)

// classifyErrorForLog tags request logs with the mapped error family
// without re-rendering the response.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= 500:
		return "server_error", payload.Type
	case status >= 400:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}

// bearerAuth guards internal endpoints with a static operator token.
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		header := c.GetHeader("Authorization")
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// requestHost strips any port from the inbound Host header.
func requestHost(c *gin.Context) string {
	host := c.Request.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}

func redirectSeeOther(c *gin.Context, url string) {
	c.Redirect(http.StatusSeeOther, url)
}

// tenantMiddleware resolves the request host to a partner slug and
// stashes it in the request context. White-label storefronts call the
// API from their own domain without naming the partner explicitly.
// Unresolvable hosts (the platform apex, localhost) pass through.
func (s *Server) tenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		partner, err := s.partnerSvc.ResolveHost(c.Request.Context(), requestHost(c))
		if err == nil {
			ctx := tenantctx.WithSlug(c.Request.Context(), partner.Slug)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
