package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/unigrado/grado-api/internal/models"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
	"github.com/unigrado/grado-api/pkg/response"
)

// RequireRoles enforces global role access on routes that are not scoped to a
// single project. Project-level authorization is the gate's job, not this one.
func RequireRoles(roles ...models.GlobalRole) gin.HandlerFunc {
	allowed := make(map[models.GlobalRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
