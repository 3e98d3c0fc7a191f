package middleware

import (
	"net/http"
	"strings"

	"quickbite-api/auth"
	"quickbite-api/models"

	"github.com/gin-gonic/gin"
)

// TokenCookie is the cookie carrying the session token
const TokenCookie = "jwt_token"

const (
	ctxUserID = "userID"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// AuthRequired validates the session token from the cookie or a bearer
// header and injects the caller into the context
func AuthRequired(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token not found"})
			return
		}
		claims, err := issuer.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, string(claims.Role))
		c.Next()
	}
}

func tokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerRole := GetRole(c)
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "Unauthorized: Only " + rolesString(roles) + " can access this resource",
		})
	}
}

// PermissionRequired checks the caller's role against the permission table.
// Permissions embedded in the token are not trusted.
func PermissionRequired(perms ...models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, p := range perms {
			if !auth.RoleHas(role, p) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"message": "Unauthorized: " + string(p) + " permission required",
				})
				return
			}
		}
		c.Next()
	}
}

func rolesString(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) models.UserRole {
	return models.UserRole(c.GetString(ctxRole))
}
