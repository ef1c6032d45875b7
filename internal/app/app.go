// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dao"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/service"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/metrics"
	"github.com/haierkeys/cloudnav-sync-service/pkg/storage"
	"github.com/haierkeys/cloudnav-sync-service/pkg/workerpool"
	"github.com/haierkeys/cloudnav-sync-service/pkg/writequeue"
	"golang.org/x/mod/semver"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config    *AppConfig
	logger    *zap.Logger
	DB        *gorm.DB
	Redis     *redis.Client
	Dao       *dao.Dao
	Metrics   *metrics.Metrics
	StartTime time.Time

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// Repository 层
	KVRepo       domain.KVRepository
	DocumentRepo domain.DocumentRepository

	// Service 层
	GateService     service.GateService
	DocumentService service.DocumentService
	ConfigService   service.ConfigService
	LinkService     service.LinkService
	AISortService   service.AISortService
	BackupService   service.BackupService
	ImportService   service.ImportService

	shutdownOnce sync.Once

	// 版本检查信息
	checkVersionMu sync.RWMutex
	checkVersion   pkgapp.CheckVersionInfo
}

// OpenStore 按 store.backend 打开存储连接
// database 后端返回 *gorm.DB，redis 后端返回 *redis.Client
func OpenStore(ctx context.Context, cfg *AppConfig) (*gorm.DB, *redis.Client, error) {
	if cfg.Store.Backend == dao.BackendRedis {
		rdb, err := dao.NewRedisClient(ctx, cfg.Store.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return nil, rdb, nil
	}
	db, err := dao.NewDBEngine(cfg.Database, cfg.Server.RunMode)
	if err != nil {
		return nil, nil, err
	}
	return db, nil, nil
}

// NewApp 创建应用容器实例
// db 与 rdb 二选一，rdb 非空时使用 Redis 后端
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, rdb *redis.Client) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil && rdb == nil {
		return nil, fmt.Errorf("database or redis is required")
	}

	a := &App{
		config:    cfg,
		logger:    logger,
		DB:        db,
		Redis:     rdb,
		Metrics:   metrics.New(),
		StartTime: time.Now(),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager，文档的所有写入都经过同一个队列
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	if rdb != nil {
		a.Dao = dao.NewWithRedis(rdb, cfg.Store.RedisPrefix, a.writeQueueMgr, logger)
	} else {
		a.Dao = dao.New(db, a.writeQueueMgr, logger)
	}

	// 初始化 Repository 层
	a.KVRepo = dao.NewKVRepository(a.Dao)
	a.DocumentRepo = dao.NewDocumentRepository(a.Dao)

	svcConfig := cfg.GetServiceConfig()

	// 初始化 Service 层（依赖注入）
	a.GateService = service.NewGateService(a.KVRepo, svcConfig.Security, a.Metrics, logger)
	a.DocumentService = service.NewDocumentService(a.DocumentRepo, svcConfig.Limits, a.Metrics, logger)

	configService, err := service.NewConfigService(a.KVRepo, svcConfig.Limits, logger)
	if err != nil {
		return nil, fmt.Errorf("init config service: %w", err)
	}
	a.ConfigService = configService

	a.LinkService = service.NewLinkService(a.DocumentRepo, svcConfig.Limits, logger)
	a.AISortService = service.NewAISortService(a.ConfigService, svcConfig.AI,
		&http.Client{Timeout: svcConfig.AI.HTTPTimeout}, logger)
	a.ImportService = service.NewImportService(logger)

	var target storage.Storager
	if cfg.Backup.Enabled {
		target, err = storage.NewClient(&cfg.Backup.Storage)
		if err != nil {
			return nil, fmt.Errorf("init backup storage: %w", err)
		}
	}
	backupService, err := service.NewBackupService(a.DocumentService, a.ConfigService, target, storage.NewClient,
		a.workerPool, svcConfig.Backup, a.Metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("init backup service: %w", err)
	}
	a.BackupService = backupService

	logger.Info("App container initialized successfully",
		zap.String("store", a.Dao.Backend()),
		zap.Bool("passwordRequired", a.GateService.RequiresAuth()),
		zap.Bool("backupEnabled", a.BackupService.Enabled()),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// SubmitTaskAsync 异步提交任务到 Worker Pool（不等待结果）
func (a *App) SubmitTaskAsync(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.SubmitAsync(ctx, task)
}

// WorkerPool 获取 Worker Pool
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager 获取 Write Queue Manager
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// CheckVersion 获取最近一次版本检查的结果
func (a *App) CheckVersion() pkgapp.CheckVersionInfo {
	a.checkVersionMu.RLock()
	defer a.checkVersionMu.RUnlock()

	cv := a.checkVersion

	if cv.VersionNewName != "" {
		cv.VersionIsNew = semver.Compare(withV(cv.VersionNewName), withV(Version)) > 0
	}

	// 如果没有更新，把版本名称设置为空
	if !cv.VersionIsNew {
		cv.VersionNewName = ""
		cv.VersionNewLink = ""
		return cv
	}

	cv.VersionNewName = strings.TrimPrefix(cv.VersionNewName, "v")
	if cv.VersionNewLink == "" {
		cv.VersionNewLink = strings.TrimSuffix(a.config.App.ReleaseLink, "/") + "/tag/v" + cv.VersionNewName
	}
	return cv
}

// SetCheckVersionInfo 设置版本检查信息
func (a *App) SetCheckVersionInfo(info pkgapp.CheckVersionInfo) {
	a.checkVersionMu.Lock()
	defer a.checkVersionMu.Unlock()
	a.checkVersion = info
}

func withV(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> Write Queue Manager -> 存储连接
// ctx 为 nil 时使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	a.shutdownOnce.Do(func() {
		a.logger.Info("App container shutting down...")

		if ctx == nil {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
			defer cancel()
		}

		// 1. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
		if a.workerPool != nil {
			if err := a.workerPool.Shutdown(ctx); err != nil {
				a.logger.Warn("Worker pool shutdown error", zap.Error(err))
				errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
			}
		}

		// 2. 关闭 Write Queue Manager（排空所有队列）
		if a.writeQueueMgr != nil {
			if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
				a.logger.Warn("write queue manager shutdown error", zap.Error(err))
				errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
			}
		}

		// 3. 关闭存储连接
		if a.Dao != nil {
			if err := a.Dao.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close store: %w", err))
			} else {
				a.logger.Info("Store connection closed", zap.String("store", a.Dao.Backend()))
			}
		}
	})

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	a.logger.Info("App container shutdown completed")
	return nil
}
