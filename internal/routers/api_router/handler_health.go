package api_router

import (
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status      string  `json:"status"`      // "healthy" 或 "unhealthy"
	Version     string  `json:"version"`     // 服务版本号
	Uptime      float64 `json:"uptime"`      // 运行时间（秒）
	Store       string  `json:"store"`       // database 或 redis
	StoreStatus string  `json:"storeStatus"` // "connected" 或 "error"
	MemoryUsed  float64 `json:"memoryUsed,omitempty"`
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括存储连接
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=HealthResponse}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:      "healthy",
		Version:     h.App.Version().Version,
		Uptime:      time.Since(h.App.StartTime).Seconds(),
		Store:       h.App.Dao.Backend(),
		StoreStatus: "connected",
	}

	if vm, err := mem.VirtualMemoryWithContext(c.Request.Context()); err == nil {
		response.MemoryUsed = vm.UsedPercent
	}

	if err := h.App.Dao.Ping(c.Request.Context()); err != nil {
		h.App.Logger().Warn("HealthHandler.Check store ping failed", zap.Error(err))
		response.Status = "unhealthy"
		response.StoreStatus = "error"
		pkgapp.NewResponse(c).ToResponse(code.ErrorServerInternal.WithData(response))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}
