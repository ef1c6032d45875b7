package api_router

import (
	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	"github.com/haierkeys/cloudnav-sync-service/internal/middleware"
	"github.com/haierkeys/cloudnav-sync-service/internal/service"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// StorageHandler 文档读写与登录 API 路由处理器
type StorageHandler struct {
	*Handler
}

// NewStorageHandler 创建 StorageHandler 实例
func NewStorageHandler(a *app.App) *StorageHandler {
	return &StorageHandler{Handler: NewHandler(a)}
}

// CheckAuth 查询认证状态
// @Summary 查询认证状态
// @Description 返回是否配置了密码，凭证正确时附带是否过期
// @Tags 认证
// @Produce json
// @Param x-auth-password header string false "访问密码"
// @Success 200 {object} pkgapp.Res{data=domain.AuthStatus} "成功"
// @Router /api/storage/auth [get]
func (h *StorageHandler) CheckAuth(c *gin.Context) {
	status, err := h.App.GateService.CheckAuth(c.Request.Context(), c.GetHeader(middleware.AuthHeader))
	if err != nil {
		h.fail(c, "StorageHandler.CheckAuth", err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(status))
}

// Login 登录
// @Summary 登录
// @Description 每个 IP 在 15 分钟内最多尝试 10 次，成功后刷新最后认证时间
// @Tags 认证
// @Produce json
// @Param x-auth-password header string true "访问密码"
// @Success 200 {object} pkgapp.Res{data=service.LoginResult} "成功"
// @Router /api/storage/login [post]
func (h *StorageHandler) Login(c *gin.Context) {
	ip := pkgapp.ClientIP(c)
	res, err := h.App.GateService.Login(c.Request.Context(), ip, c.GetHeader(middleware.AuthHeader))
	if err != nil {
		h.fail(c, "StorageHandler.Login", err)
		return
	}
	if res.NoPasswordRequired {
		pkgapp.NewResponse(c).ToResponse(code.SuccessNoAuth.WithData(res))
		return
	}
	h.App.Logger().Info("login succeeded", zap.String(logger.FieldIP, ip))
	pkgapp.NewResponse(c).ToResponse(code.SuccessLogin.WithData(res))
}

// Verify 校验凭证，不刷新认证时间
// @Summary 校验凭证
// @Description 用于加锁分类等二次确认，无副作用
// @Tags 认证
// @Produce json
// @Param x-auth-password header string true "访问密码"
// @Success 200 {object} pkgapp.Res{data=dto.VerifyResponse} "成功"
// @Router /api/storage/verify [post]
func (h *StorageHandler) Verify(c *gin.Context) {
	valid := h.App.GateService.Verify(c.GetHeader(middleware.AuthHeader))
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.VerifyResponse{Valid: valid}))
}

// Get 读取文档
// @Summary 读取文档
// @Description 需要未过期的凭证；兼容 ?checkAuth=true 与 ?getConfig=name
// @Tags 文档
// @Produce json
// @Param x-auth-password header string false "访问密码"
// @Success 200 {object} pkgapp.Res{data=domain.Document} "成功"
// @Failure 401 {object} apperrors.AppError "未授权或已过期"
// @Router /api/storage [get]
func (h *StorageHandler) Get(c *gin.Context) {
	if c.Query("checkAuth") == "true" {
		h.CheckAuth(c)
		return
	}
	if name := c.Query("getConfig"); name != "" {
		h.getConfig(c, name)
		return
	}

	if !h.authorize(c, service.AuthorizeOptions{CheckExpiry: true}) {
		return
	}
	doc, err := h.App.DocumentService.Get(c.Request.Context())
	if err != nil {
		h.fail(c, "StorageHandler.Get", err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(doc))
}

// Post 按 baseVersion 条件写入文档
// @Summary 写入文档
// @Description baseVersion 与当前版本不一致时返回 409 与 currentVersion；兼容 {authOnly} 与 {saveConfig} 旧格式
// @Tags 文档
// @Accept json
// @Produce json
// @Param x-auth-password header string false "访问密码"
// @Param params body dto.DocumentSaveRequest true "文档数据"
// @Success 200 {object} pkgapp.Res{data=dto.DocumentSaveResponse} "成功"
// @Failure 409 {object} apperrors.AppError{data=dto.ConflictData} "版本冲突"
// @Failure 413 {object} apperrors.AppError "请求体过大"
// @Router /api/storage [post]
func (h *StorageHandler) Post(c *gin.Context) {
	action := &dto.StorageActionRequest{}
	if err := c.ShouldBindBodyWith(action, binding.JSON); err != nil {
		h.failBind(c, "StorageHandler.Post", pkgapp.ValidErrors{{Key: "body", Message: err.Error(), Err: err}})
		return
	}

	if action.AuthOnly {
		h.Login(c)
		return
	}
	if action.SaveConfig != "" {
		h.saveConfig(c, action.SaveConfig, &action.ConfigSaveRequest)
		return
	}

	params := &dto.DocumentSaveRequest{}
	if err := c.ShouldBindBodyWith(params, binding.JSON); err != nil {
		h.failBind(c, "StorageHandler.Post", pkgapp.ValidErrors{{Key: "body", Message: err.Error(), Err: err}})
		return
	}

	if !h.authorize(c, service.AuthorizeOptions{CheckExpiry: true}) {
		return
	}

	res, err := h.App.DocumentService.Save(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "StorageHandler.Post", err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessSaved.WithData(dto.DocumentSaveResponse{
		Success:   true,
		Version:   res.Version,
		UpdatedAt: res.UpdatedAt,
	}))
}
