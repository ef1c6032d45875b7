package api_router

import (
	"errors"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	"github.com/haierkeys/cloudnav-sync-service/internal/service"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// AISortHandler AI 整理 API 路由处理器
type AISortHandler struct {
	*Handler
}

// NewAISortHandler 创建 AISortHandler 实例
func NewAISortHandler(a *app.App) *AISortHandler {
	return &AISortHandler{Handler: NewHandler(a)}
}

// Sort 转发到 OpenAI 兼容接口，返回分类建议，不修改文档
// @Summary AI 整理
// @Tags AI
// @Accept json
// @Produce json
// @Param x-auth-password header string false "访问密码"
// @Param params body dto.AISortRequest true "当前链接与分类"
// @Success 200 {object} pkgapp.Res{data=domain.AISuggestion} "成功"
// @Failure 502 {object} apperrors.AppError "上游错误"
// @Router /api/ai-sort [post]
func (h *AISortHandler) Sort(c *gin.Context) {
	params := &dto.AISortRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.failBind(c, "AISortHandler.Sort", errs)
		return
	}

	suggestion, err := h.App.AISortService.Sort(c.Request.Context(), params.Links, params.Categories)
	if err != nil {
		var cfgInvalid *service.ConfigInvalidError
		if errors.As(err, &cfgInvalid) {
			err = code.ErrorAIURLInvalid.WithDetails(cfgInvalid.Error())
		}
		h.fail(c, "AISortHandler.Sort", err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(suggestion))
}
