package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"Lee_QnA/internal/pkg"
	"Lee_QnA/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

const ContextUserIDKey = "user_id"

type AccessParser interface {
	ParseAccess(tokenStr string) (*pkg.Claims, error)
}

// TokenVerifier 校验 token 是否为当前登录态并续期
type TokenVerifier interface {
	Verify(ctx context.Context, userID uint64, token string) error
}

func AuthMiddleware(parser AccessParser, tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		claims, err := parser.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}

		// redis校验是否是正确的token，通过后顺延过期时间
		if err := tokens.Verify(c.Request.Context(), claims.UserID, tokenStr); err != nil {
			if errors.Is(err, redis.ErrRedisUnavailable) {
				Logger(c).WithError(err).Error("token store unavailable")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "token store unavailable"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Account has been logging elsewhere"})
			return
		}

		// 注入 user_id
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}
