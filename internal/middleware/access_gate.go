package middleware

import (
	"errors"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/service"
	"github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// AuthHeader 客户端传递访问密码的请求头
const AuthHeader = "x-auth-password"

// AccessGate 校验 x-auth-password，未配置密码时直接放行（opts.Required 除外）
func AccessGate(gate service.GateService, opts service.AuthorizeOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := gate.Authorize(c.Request.Context(), c.GetHeader(AuthHeader), opts)
		if err == nil {
			c.Next()
			return
		}

		response := app.NewResponse(c)
		switch {
		case errors.Is(err, domain.ErrExpired):
			response.ToResponse(code.ErrorPasswordExpired)
		case errors.Is(err, domain.ErrUnauthorized) && opts.Required && !gate.RequiresAuth():
			response.ToResponse(code.ErrorPasswordUnset)
		case errors.Is(err, domain.ErrUnauthorized):
			response.ToResponse(code.ErrorUnauthorized)
		default:
			_ = c.Error(err)
			response.ToResponse(code.ErrorServerInternal)
		}
		c.Abort()
	}
}
