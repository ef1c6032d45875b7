package api_router

import (
	"github.com/gin-gonic/gin"
	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"
)

// VersionHandler version info API router handler
// VersionHandler 版本信息 API 路由处理器
type VersionHandler struct {
	*Handler
}

// NewVersionHandler creates VersionHandler instance
// NewVersionHandler 创建 VersionHandler 实例
func NewVersionHandler(a *app.App) *VersionHandler {
	return &VersionHandler{
		Handler: NewHandler(a),
	}
}

// ServerVersion 返回服务版本与存储后端，检查到新版本时附带 release
// @Summary Get server version info
// @Tags System
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.ServerVersionDTO} "Success"
// @Router /api/version [get]
func (h *VersionHandler) ServerVersion(c *gin.Context) {
	versionInfo := h.App.Version()
	res := dto.ServerVersionDTO{
		Name:         app.Name,
		Version:      versionInfo.Version,
		GitTag:       versionInfo.GitTag,
		BuildTime:    versionInfo.BuildTime,
		StoreBackend: h.App.Config().Store.Backend,
	}
	if checkInfo := h.App.CheckVersion(); checkInfo.VersionIsNew {
		res.Release = &dto.ReleaseDTO{Latest: checkInfo.VersionNewName, Link: checkInfo.VersionNewLink}
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(res))
}
