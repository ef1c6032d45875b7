package middleware

import (
	"time"

	"github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLogWithLogger 访问日志，不记录查询参数与请求头，避免凭证写入日志
func AccessLogWithLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		startTime := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String(logger.FieldMethod, c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration(logger.FieldDuration, time.Since(startTime)),
			zap.String(logger.FieldIP, app.GetRequestIP(c)),
			zap.String("user-agent", c.Request.UserAgent()),
		}
		if id := GetTraceIDFromGin(c); id != "" {
			fields = append(fields, zap.String(logger.FieldTraceID, id))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String(logger.FieldError, errs))
		}

		if c.Writer.Status() >= 500 {
			log.Warn(path, fields...)
			return
		}
		log.Info(path, fields...)
	}
}
