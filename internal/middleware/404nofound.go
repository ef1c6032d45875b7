package middleware

import (
	"github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound 404 handler
// NoFound 未匹配的 /api 路由统一返回 JSON
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).ToResponse(code.ErrorNotFoundAPI)
		c.Abort()
	}
}
