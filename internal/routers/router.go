package routers

import (
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/middleware"
	"github.com/haierkeys/cloudnav-sync-service/internal/routers/api_router"
	"github.com/haierkeys/cloudnav-sync-service/internal/service"
	"github.com/haierkeys/cloudnav-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// newMethodLimiters 凭证校验接口的全局令牌桶，按 IP 的登录限流在 GateService 中
func newMethodLimiters() limiter.Face {
	return limiter.NewMethodLimiter().AddBuckets(
		limiter.BucketRule{
			Key:          "/api/storage/login",
			FillInterval: time.Second,
			Capacity:     10,
			Quantum:      10,
		},
		limiter.BucketRule{
			Key:          "/api/storage/verify",
			FillInterval: time.Second,
			Capacity:     10,
			Quantum:      10,
		},
	)
}

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()
	limits := cfg.GetBodyLimits()
	gate := appContainer.GateService

	r := gin.New()
	// 预检请求没有匹配的路由，需要在全局处理
	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddleware(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(newMethodLimiters()))
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))
		api.Use(middleware.Metrics(appContainer.Metrics))

		// 创建 Handlers（注入 App Container）
		storageHandler := api_router.NewStorageHandler(appContainer)
		configHandler := api_router.NewConfigHandler(appContainer)
		linkHandler := api_router.NewLinkHandler(appContainer)
		aiSortHandler := api_router.NewAISortHandler(appContainer)
		backupHandler := api_router.NewBackupHandler(appContainer)
		importHandler := api_router.NewImportHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		// 认证
		api.GET("/storage/auth", storageHandler.CheckAuth)
		api.POST("/storage/login", storageHandler.Login)
		api.POST("/storage/verify", storageHandler.Verify)

		// 文档，鉴权在 handler 内完成以兼容旧的 checkAuth/getConfig/saveConfig 格式
		api.GET("/storage", storageHandler.Get)
		api.POST("/storage", middleware.BodyLimit(limits.Storage), storageHandler.Post)

		// 配置，按名称鉴权
		api.GET("/config/:name", configHandler.Get)
		api.POST("/config/:name", middleware.BodyLimit(limits.Storage), configHandler.Save)

		api.POST("/link",
			middleware.AccessGate(gate, service.AuthorizeOptions{Required: true}),
			middleware.BodyLimit(limits.Link),
			linkHandler.Add)

		api.POST("/ai-sort",
			middleware.AccessGate(gate, service.AuthorizeOptions{}),
			middleware.BodyLimit(limits.AISort),
			aiSortHandler.Sort)

		api.POST("/webdav",
			middleware.AccessGate(gate, service.AuthorizeOptions{}),
			middleware.BodyLimit(limits.Storage),
			backupHandler.WebDAV)

		api.POST("/backup", middleware.AccessGate(gate, service.AuthorizeOptions{CheckExpiry: true}), backupHandler.Snapshot)
		api.POST("/backup/restore", middleware.AccessGate(gate, service.AuthorizeOptions{CheckExpiry: true}), backupHandler.Restore)

		api.POST("/import/bookmarks",
			middleware.AccessGate(gate, service.AuthorizeOptions{}),
			middleware.BodyLimit(limits.Import),
			importHandler.Bookmarks)

		// 系统
		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)
	}

	return r
}
