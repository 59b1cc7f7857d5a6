package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"studygenie/internal/pkg/jwtutil"
	"studygenie/internal/transport/http/response"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Abort(c, 401, response.CodeUnauthorized, "missing authorization header")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			response.Abort(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Abort(c, 401, response.CodeUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid bearer token is
// present and lets anonymous requests through unchanged.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(strings.TrimSpace(c.GetHeader("Authorization")))
		if ok {
			if claims, err := jwtutil.ParseToken(secret, token); err == nil {
				c.Set(ContextUserIDKey, claims.UserID)
				c.Set(ContextRoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
