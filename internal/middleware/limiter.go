package middleware

import (
	"github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"
	"github.com/haierkeys/cloudnav-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 按路由令牌桶限流，未配置规则的路由不受限
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.Key(c)
		if bucket, ok := l.GetBucket(key); ok {
			if bucket.TakeAvailable(1) == 0 {
				app.NewResponse(c).ToResponse(code.ErrorTooManyRequest)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
