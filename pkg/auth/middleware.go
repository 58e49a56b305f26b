package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// JWTAuth rejects requests without a valid bearer token and stores the
// caller's Identity on the gin context.
func JWTAuth(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.Identify(c.GetHeader("Authorization"))
		if err != nil {
			detail := "Invalid token"
			if errors.Is(err, ErrTokenExpired) {
				detail = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[FromContext(c).Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Admins only"})
			return
		}
		c.Next()
	}
}

// FromContext returns the zero Identity when JWTAuth did not run.
func FromContext(c *gin.Context) Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(Identity)
	return id
}
