package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 捕获 panic，记录堆栈后返回统一的 500 响应
// 响应中不包含 panic 内容
func RecoveryWithLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := []zap.Field{
					zap.String("router", c.Request.URL.Path),
					zap.String(logger.FieldMethod, c.Request.Method),
					zap.String(logger.FieldIP, app.GetRequestIP(c)),
					zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
					zap.String("stack", string(debug.Stack())),
				}
				if err, ok := r.(error); ok {
					log.Error("Recovered from panic", append(fields, zap.Error(err))...)
				} else {
					log.Error("Recovered from unknown panic", append(fields, zap.String("panic_value", fmt.Sprintf("%v", r)))...)
				}

				app.NewResponse(c).ToResponse(code.ErrorServerInternal)
				c.Abort()
			}
		}()

		c.Next()
	}
}
