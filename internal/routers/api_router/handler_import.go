package api_router

import (
	"errors"
	"net/http"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ImportHandler 书签导入 API 路由处理器
type ImportHandler struct {
	*Handler
}

// NewImportHandler 创建 ImportHandler 实例
func NewImportHandler(a *app.App) *ImportHandler {
	return &ImportHandler{Handler: NewHandler(a)}
}

// Bookmarks 解析浏览器导出的书签 HTML，合并由客户端完成
// @Summary 解析书签文件
// @Tags 导入
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Netscape 书签 HTML"
// @Success 200 {object} pkgapp.Res{data=domain.ImportResult} "成功"
// @Router /api/import/bookmarks [post]
func (h *ImportHandler) Bookmarks(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, "ImportHandler.Bookmarks", domain.ErrTooLarge)
			return
		}
		h.logError(c.Request.Context(), "ImportHandler.Bookmarks.FormFile", err)
		response.ToResponse(code.ErrorImportFile)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, "ImportHandler.Bookmarks.Open", err)
		return
	}
	defer f.Close()

	res, err := h.App.ImportService.ParseBookmarks(c.Request.Context(), f)
	if err != nil {
		h.logError(c.Request.Context(), "ImportHandler.Bookmarks.Parse", err)
		response.ToResponse(code.ErrorImportParse.WithDetails(err.Error()))
		return
	}
	response.ToResponse(code.Success.WithData(res))
}
