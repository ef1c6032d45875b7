package api_router

import (
	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	"github.com/haierkeys/cloudnav-sync-service/internal/service"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ConfigHandler 配置读写 API 路由处理器
// 不同配置的鉴权要求不同，在 handler 内按名称校验
type ConfigHandler struct {
	*Handler
}

// NewConfigHandler 创建 ConfigHandler 实例
func NewConfigHandler(a *app.App) *ConfigHandler {
	return &ConfigHandler{Handler: NewHandler(a)}
}

// Get 读取配置
// @Summary 读取配置
// @Description search/site/website/favicon 公开，ai 需要凭证
// @Tags 配置
// @Produce json
// @Param name path string true "配置名称" Enums(search, site, website, ai, favicon)
// @Param domain query string false "favicon 的域名"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/config/{name} [get]
func (h *ConfigHandler) Get(c *gin.Context) {
	h.getConfig(c, c.Param("name"))
}

// Save 写入配置
// @Summary 写入配置
// @Description search/site 需要凭证，website/ai 还会校验凭证有效期，favicon 公开
// @Tags 配置
// @Accept json
// @Produce json
// @Param name path string true "配置名称" Enums(search, site, website, ai, favicon)
// @Param params body dto.ConfigSaveRequest true "配置内容"
// @Success 200 {object} pkgapp.Res{data=dto.SuccessResponse} "成功"
// @Router /api/config/{name} [post]
func (h *ConfigHandler) Save(c *gin.Context) {
	params := &dto.ConfigSaveRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.failBind(c, "ConfigHandler.Save", errs)
		return
	}
	h.saveConfig(c, c.Param("name"), params)
}

func (h *Handler) getConfig(c *gin.Context, name string) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()
	cs := h.App.ConfigService

	switch name {
	case service.ConfigSearch:
		raw, err := cs.GetSearch(ctx)
		if err != nil {
			h.fail(c, "ConfigHandler.GetSearch", err)
			return
		}
		response.ToResponse(code.Success.WithData(raw))

	case service.ConfigSite:
		raw, err := cs.GetSite(ctx)
		if err != nil {
			h.fail(c, "ConfigHandler.GetSite", err)
			return
		}
		response.ToResponse(code.Success.WithData(raw))

	case service.ConfigWebsite:
		raw, err := cs.GetWebsite(ctx)
		if err != nil {
			h.fail(c, "ConfigHandler.GetWebsite", err)
			return
		}
		response.ToResponse(code.Success.WithData(raw))

	case service.ConfigAI:
		// 包含 API Key
		if !h.authorize(c, service.AuthorizeOptions{}) {
			return
		}
		raw, err := cs.GetAI(ctx)
		if err != nil {
			h.fail(c, "ConfigHandler.GetAI", err)
			return
		}
		response.ToResponse(code.Success.WithData(raw))

	case service.ConfigFavicon:
		params := &dto.FaviconGetRequest{}
		if valid, errs := pkgapp.BindAndValid(c, params); !valid {
			h.failBind(c, "ConfigHandler.GetFavicon", errs)
			return
		}
		fav, err := cs.GetFavicon(ctx, params.Domain)
		if err != nil {
			h.fail(c, "ConfigHandler.GetFavicon", err)
			return
		}
		response.ToResponse(code.Success.WithData(fav))

	default:
		response.ToResponse(code.ErrorConfigUnknown.WithDetails(name))
	}
}

func (h *Handler) saveConfig(c *gin.Context, name string, params *dto.ConfigSaveRequest) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()
	cs := h.App.ConfigService
	ok := &dto.SuccessResponse{Success: true}

	switch name {
	case service.ConfigSearch:
		if !h.authorize(c, service.AuthorizeOptions{}) {
			return
		}
		if err := cs.PutSearch(ctx, params.Config); err != nil {
			h.fail(c, "ConfigHandler.PutSearch", err)
			return
		}
		response.ToResponse(code.SuccessSaved.WithData(ok))

	case service.ConfigSite:
		if !h.authorize(c, service.AuthorizeOptions{}) {
			return
		}
		if _, err := cs.PutSite(ctx, params.Config); err != nil {
			h.fail(c, "ConfigHandler.PutSite", err)
			return
		}
		response.ToResponse(code.SuccessSaved.WithData(ok))

	case service.ConfigWebsite:
		if !h.authorize(c, service.AuthorizeOptions{CheckExpiry: true}) {
			return
		}
		if _, err := cs.PutWebsite(ctx, params.Config); err != nil {
			h.fail(c, "ConfigHandler.PutWebsite", err)
			return
		}
		response.ToResponse(code.SuccessSaved.WithData(ok))

	case service.ConfigAI:
		if !h.authorize(c, service.AuthorizeOptions{CheckExpiry: true}) {
			return
		}
		if _, err := cs.PutAI(ctx, params.Config); err != nil {
			h.fail(c, "ConfigHandler.PutAI", err)
			return
		}
		response.ToResponse(code.SuccessSaved.WithData(ok))

	case service.ConfigFavicon:
		if params.Domain == "" || params.Icon == "" {
			response.ToResponse(code.ErrorFaviconMissing)
			return
		}
		if err := cs.PutFavicon(ctx, params.Domain, params.Icon); err != nil {
			h.fail(c, "ConfigHandler.PutFavicon", err)
			return
		}
		response.ToResponse(code.SuccessSaved.WithData(ok))

	default:
		response.ToResponse(code.ErrorConfigUnknown.WithDetails(name))
	}
}
