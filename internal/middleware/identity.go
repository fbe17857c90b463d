package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CtxUserIDKey is the gin context key holding the caller's user id.
	CtxUserIDKey = "userID"

	// UserIDHeader is set by the authenticating front proxy. Authentication
	// itself is an external collaborator; this layer only reads the result.
	UserIDHeader = "X-User-ID"
)

// Identity extracts the caller identity from the trusted proxy header and
// stores it on the request context. Requests without an identity proceed;
// handlers that need one reject them.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader(UserIDHeader)); userID != "" {
			c.Set(CtxUserIDKey, userID)
		}
		c.Next()
	}
}
