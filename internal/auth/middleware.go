package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/response"
)

const userKey = "user"

func AuthMiddleware(provider Provider, logger internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			user, err := provider.Authenticate(c.Request.Context(), token)
			if err == nil {
				c.Set(userKey, user)
				c.Next()
				return
			}
			logger.Warnf("[request_id=%s] auth failed: %v", c.GetString("request_id"), err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("Unauthorized"))
	}
}

// RequirePermissions aborts with 403 unless the authenticated user holds
// every listed permission.
func RequirePermissions(perms ...internal.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("Unauthorized"))
			return
		}
		granted := internal.NewPermissionSet(user.Permissions...)
		for _, p := range perms {
			if !granted.Has(p) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden("missing permission "+p.String()))
				return
			}
		}
		c.Next()
	}
}

func UserFrom(c *gin.Context) (*internal.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*internal.User)
	return user, ok
}
