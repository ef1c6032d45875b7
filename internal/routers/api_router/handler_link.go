package api_router

import (
	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// LinkHandler 快速添加链接 API 路由处理器
type LinkHandler struct {
	*Handler
}

// NewLinkHandler 创建 LinkHandler 实例
func NewLinkHandler(a *app.App) *LinkHandler {
	return &LinkHandler{Handler: NewHandler(a)}
}

// Add 添加链接到收集分类
// @Summary 添加链接
// @Description 服务端必须配置密码；未指定分类时放入收集分类，没有则创建
// @Tags 链接
// @Accept json
// @Produce json
// @Param x-auth-password header string true "访问密码"
// @Param params body dto.LinkAddRequest true "链接"
// @Success 200 {object} pkgapp.Res{data=dto.LinkAddResponse} "成功"
// @Router /api/link [post]
func (h *LinkHandler) Add(c *gin.Context) {
	params := &dto.LinkAddRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.failBind(c, "LinkHandler.Add", errs)
		return
	}

	res, err := h.App.LinkService.Add(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "LinkHandler.Add", err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessLinkAdd.WithData(res))
}
