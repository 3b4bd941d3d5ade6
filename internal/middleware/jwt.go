package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kingscode/bootcamp-api/internal/auth"
	"github.com/kingscode/bootcamp-api/pkg/response"
)

const (
	// ContextStaffUsername is the key for the token subject in gin context.
	ContextStaffUsername = "staff_username"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
)

// JWT returns a middleware that validates the bearer token and sets its claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextStaffUsername, claims.Subject)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}
