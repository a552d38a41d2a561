package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"counseling-scheduler-api/internal/auth"
)

const (
	callerIDKey   = "caller_id"
	callerRoleKey = "caller_role"
)

// Identity records who is calling when a bearer token is presented.
// The API itself stays open (session state lives in the frontend), so
// a missing or bad token never rejects the request; it only means the
// access log has no user attached.
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			raw := strings.TrimPrefix(header, "Bearer ")
			if claims, err := auth.ParseToken(raw, secret); err == nil {
				c.Set(callerIDKey, claims.UserID)
				c.Set(callerRoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

// CallerID returns the authenticated caller's user id, if any.
func CallerID(c *gin.Context) string {
	if v, ok := c.Get(callerIDKey); ok {
		if uid, ok := v.(string); ok {
			return uid
		}
	}
	return ""
}

// CallerRole returns the authenticated caller's role, if any.
func CallerRole(c *gin.Context) string {
	if v, ok := c.Get(callerRoleKey); ok {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}
