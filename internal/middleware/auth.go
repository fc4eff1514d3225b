package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mystrymsg/internal/models"
	"mystrymsg/internal/services"
)

const principalKey = "principal"

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}

// AuthMiddleware requires a bearer session token and stores the principal in the context.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// пропускаем preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			unauthorized(c, "Not authenticated")
			return
		}

		claims, err := authService.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(principalKey, claims.Principal())
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(c *gin.Context) (*models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*models.Principal)
	return p, ok && p != nil
}
