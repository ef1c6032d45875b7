package api_router

import (
	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// BackupHandler 备份 API 路由处理器
type BackupHandler struct {
	*Handler
}

// NewBackupHandler 创建 BackupHandler 实例
func NewBackupHandler(a *app.App) *BackupHandler {
	return &BackupHandler{Handler: NewHandler(a)}
}

// WebDAV 代理用户自己的 WebDAV 服务
// @Summary WebDAV 备份代理
// @Description operation 为 check/upload/download，download 返回备份文件内容
// @Tags 备份
// @Accept json
// @Produce json
// @Param params body dto.WebDAVRequest true "WebDAV 配置与操作"
// @Success 200 {object} pkgapp.Res{data=dto.WebDAVResponse} "成功"
// @Router /api/webdav [post]
func (h *BackupHandler) WebDAV(c *gin.Context) {
	params := &dto.WebDAVRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.failBind(c, "BackupHandler.WebDAV", errs)
		return
	}

	res, err := h.App.BackupService.WebDAV(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "BackupHandler.WebDAV", err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(res))
}

// Snapshot 立即备份到服务端存储
// @Summary 立即备份
// @Tags 备份
// @Produce json
// @Param x-auth-password header string false "访问密码"
// @Success 200 {object} pkgapp.Res{data=dto.BackupSnapshotResponse} "成功"
// @Router /api/backup [post]
func (h *BackupHandler) Snapshot(c *gin.Context) {
	res, err := h.App.BackupService.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, "BackupHandler.Snapshot", err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessBackedUp.WithData(res))
}

// Restore 从服务端备份恢复
// @Summary 恢复备份
// @Description 备份数据经过修复后按 baseVersion 条件写入，未提供 baseVersion 时覆盖当前版本
// @Tags 备份
// @Accept json
// @Produce json
// @Param x-auth-password header string false "访问密码"
// @Param params body dto.BackupRestoreRequest false "基准版本"
// @Success 200 {object} pkgapp.Res{data=dto.DocumentSaveResponse} "成功"
// @Router /api/backup/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	params := &dto.BackupRestoreRequest{}
	if c.Request.ContentLength != 0 {
		if valid, errs := pkgapp.BindAndValid(c, params); !valid {
			h.failBind(c, "BackupHandler.Restore", errs)
			return
		}
	}

	res, err := h.App.BackupService.Restore(c.Request.Context(), params.BaseVersion)
	if err != nil {
		h.fail(c, "BackupHandler.Restore", err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessRestored.WithData(dto.DocumentSaveResponse{
		Success:   true,
		Version:   res.Version,
		UpdatedAt: res.UpdatedAt,
	}))
}
