package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"frameworks/pkg/ctxkeys"
)

// ServiceAuthMiddleware validates service-to-service auth tokens
func ServiceAuthMiddleware(expectedToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}
		if err := ValidateServiceToken(token, expectedToken); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(string(ctxkeys.KeyAuthType), "service")
		c.Next()
	}
}

// JWTAuthMiddleware accepts either a user JWT or the shared service token.
// Validated claims are stored on the gin context under KeyClaims.
func JWTAuthMiddleware(secret []byte, serviceToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := ValidateJWT(token, secret)
		if err == nil {
			c.Set(string(ctxkeys.KeyUserID), claims.UserID)
			c.Set(string(ctxkeys.KeyTenantID), claims.TenantID)
			c.Set(string(ctxkeys.KeyRole), claims.Role)
			c.Set(string(ctxkeys.KeyAuthType), "jwt")
			c.Set(string(ctxkeys.KeyClaims), claims)
			c.Next()
			return
		}

		if serviceToken != "" && ValidateServiceToken(token, serviceToken) == nil {
			c.Set(string(ctxkeys.KeyRole), "service")
			c.Set(string(ctxkeys.KeyAuthType), "service")
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	}
}

// ClaimsFromContext returns the JWT claims set by JWTAuthMiddleware, if any.
func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(string(ctxkeys.KeyClaims))
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// CanAccessProject reports whether the authenticated caller may read projectID.
// Service callers are trusted; JWT callers are limited to their project scope.
func CanAccessProject(c *gin.Context, projectID uint64) bool {
	if c.GetString(string(ctxkeys.KeyAuthType)) == "service" {
		return true
	}
	claims, ok := ClaimsFromContext(c)
	return ok && claims.AllowsProject(projectID)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization header"})
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
		return "", false
	}
	return parts[1], true
}
