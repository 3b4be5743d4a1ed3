package middleware

import (
	"strconv"
	"time"

	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/ratelimit"
	"eva_harper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// RateLimit ограничивает запросы по паре (маршрут, IP клиента).
// Ошибка лимитера запрос не блокирует.
func RateLimit(manager *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !manager.Enabled() {
			c.Next()
			return
		}

		key := c.FullPath() + ":" + c.ClientIP()
		result, err := manager.Allow(c.Request.Context(), key)
		if err != nil {
			logger.CtxWithError(c.Request.Context(), "rate limit check failed", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(manager.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			retry := int(time.Until(result.Reset).Seconds()) + 1
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			apperrors.HandleError(c, apperrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
