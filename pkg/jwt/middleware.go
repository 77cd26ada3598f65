package jwt

import (
	"strings"

	"gastbook/pkg/logger"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
	ContextClaimsKey   = "jwt_claims"
)

// AuthMiddleware requires Authorization: Bearer <token>.
func (s *JWTService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing or malformed Authorization header")
			c.Abort()
			return
		}

		claims, err := s.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			logger.Warn("jwt validation failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			response.Unauthorized(c, "token invalid or expired")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user when a valid token is present and
// otherwise lets the request through as anonymous.
func (s *JWTService) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := s.Authenticate(c.Request.Context(), tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func setClaims(c *gin.Context, claims *CustomClaims) {
	c.Set(ContextUserIDKey, claims.UserID())
	c.Set(ContextUsernameKey, claims.Username())
	c.Set(ContextClaimsKey, claims)
}

// GetUserID current user id, 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	if userID, exists := c.Get(ContextUserIDKey); exists {
		if id, ok := userID.(uint); ok {
			return id
		}
	}
	return 0
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsernameKey)
}

func GetClaims(c *gin.Context) *CustomClaims {
	if claims, exists := c.Get(ContextClaimsKey); exists {
		if cc, ok := claims.(*CustomClaims); ok {
			return cc
		}
	}
	return nil
}
