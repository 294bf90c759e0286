package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docuhub/internal/domain"
)

// ContextUserKey is where the middleware stores the verified identity.
const ContextUserKey = "auth_user"

// Middleware verifies the Authorization bearer token and attaches the
// identity to the request context. Missing credential refuses with 401,
// an invalid one with 403.
func Middleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearerToken(c.GetHeader("Authorization"))
		user, err := tokens.Verify(credential)
		if err != nil {
			status := http.StatusForbidden
			if errors.Is(err, ErrTokenMissing) {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"message": "access denied"})
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// UserFrom fetches the identity attached by Middleware.
func UserFrom(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
