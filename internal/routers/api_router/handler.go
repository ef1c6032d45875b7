// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"
	"errors"
	"net/http"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	"github.com/haierkeys/cloudnav-sync-service/internal/middleware"
	"github.com/haierkeys/cloudnav-sync-service/internal/service"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"
	apperrors "github.com/haierkeys/cloudnav-sync-service/pkg/errors"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// logError 记录错误日志，客户端可预期的错误只记 Info
func (h *Handler) logError(ctx context.Context, method string, err error) {
	fields := []zap.Field{
		zap.String(logger.FieldMethod, method),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
		zap.Error(err),
	}
	if toCode(err).StatusCode() < http.StatusInternalServerError {
		h.App.Logger().Info(method, fields...)
		return
	}
	h.App.Logger().Error(method, fields...)
}

// fail 按错误类型输出统一错误响应
func (h *Handler) fail(c *gin.Context, method string, err error) {
	h.logError(c.Request.Context(), method, err)
	apperrors.ErrorResponse(c, apperrors.NewAppError(toCode(err), err))
}

// failBind 绑定失败：请求体超限返回 413，其余返回参数错误
func (h *Handler) failBind(c *gin.Context, method string, errs pkgapp.ValidErrors) {
	var tooLarge *http.MaxBytesError
	if errors.As(errs, &tooLarge) {
		h.fail(c, method, domain.ErrTooLarge)
		return
	}
	h.App.Logger().Info(method+".BindAndValid", zap.Error(errs))
	pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
}

// authorize 在 handler 内按需校验凭证，失败时已写出响应
func (h *Handler) authorize(c *gin.Context, opts service.AuthorizeOptions) bool {
	err := h.App.GateService.Authorize(c.Request.Context(), c.GetHeader(middleware.AuthHeader), opts)
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrUnauthorized) && opts.Required && !h.App.GateService.RequiresAuth() {
		err = errPasswordUnset
	}
	h.fail(c, "Handler.authorize", err)
	return false
}

var errPasswordUnset = errors.New("password not configured")

// toCode 将领域错误映射为响应码
func toCode(err error) *code.Code {
	var (
		conflict   *domain.ConflictError
		tooLarge   *http.MaxBytesError
		param      *service.ParamError
		cfgInvalid *service.ConfigInvalidError
		backupErr  *service.BackupUpstreamError
		codeErr    *code.Code
	)

	switch {
	case err == nil:
		return code.Success
	case errors.As(err, &codeErr):
		return codeErr
	case errors.As(err, &conflict):
		return code.ErrorVersionConflict.WithData(dto.ConflictData{CurrentVersion: conflict.CurrentVersion})
	case errors.Is(err, domain.ErrConflict):
		return code.ErrorVersionConflict
	case errors.Is(err, domain.ErrTooLarge), errors.As(err, &tooLarge):
		return code.ErrorBodyTooLarge
	case errors.Is(err, errPasswordUnset):
		return code.ErrorPasswordUnset
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrAuthRequired):
		return code.ErrorUnauthorized
	case errors.Is(err, domain.ErrExpired):
		return code.ErrorPasswordExpired
	case errors.Is(err, domain.ErrTooManyAttempts):
		return code.ErrorLoginRateLimit
	case errors.Is(err, domain.ErrTooManyLinks):
		return code.ErrorTooManyLinks
	case errors.Is(err, domain.ErrTooManyCategories):
		return code.ErrorTooManyCategories
	case errors.Is(err, domain.ErrReservedCategory):
		return code.ErrorReservedCategory
	case errors.Is(err, domain.ErrInvalidDocument):
		return code.ErrorInvalidDocument
	case errors.Is(err, domain.ErrInvalidDomain):
		return code.ErrorInvalidDomain
	case errors.As(err, &cfgInvalid):
		return code.ErrorConfigInvalid.WithDetails(cfgInvalid.Error())
	case errors.Is(err, domain.ErrAIConfigMissing):
		return code.ErrorAIConfigMissing
	case errors.Is(err, domain.ErrAIUpstream):
		return code.ErrorAIUpstream
	case errors.Is(err, domain.ErrBackupNotFound):
		return code.ErrorBackupNotFound
	case errors.As(err, &backupErr):
		return code.ErrorBackupUpstream.WithData(dto.WebDAVResponse{Success: false, Status: backupErr.Status})
	case errors.Is(err, service.ErrBackupDisabled):
		return code.ErrorBackupDisabled
	case errors.As(err, &param):
		return paramCode(param)
	}
	return code.ErrorServerInternal
}

func paramCode(p *service.ParamError) *code.Code {
	switch p.Field {
	case "title":
		if p.Reason == "title too long" {
			return code.ErrorLinkTooLong
		}
		return code.ErrorLinkTitleURL
	case "url":
		if p.Reason == "invalid url format" {
			return code.ErrorLinkURL
		}
		return code.ErrorLinkTitleURL
	case "config":
		return code.ErrorBackupConfigMissing.WithDetails(p.Reason)
	case "operation":
		return code.ErrorBackupOperation
	}
	return code.ErrorInvalidParams.WithDetails(p.Error())
}
