package middleware

import (
	"net/http"

	"github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// BodyLimit 限制请求体大小
// Content-Length 已超限时直接返回 413，否则由 MaxBytesReader 在读取时截断
func BodyLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxSize {
			app.NewResponse(c).ToResponse(code.ErrorBodyTooLarge)
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
