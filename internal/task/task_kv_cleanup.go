package task

import (
	"context"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// KVCleanupTask 清理过期的 favicon 缓存与登录限流记录
type KVCleanupTask struct {
	app *app.App
}

// Name 返回任务名称
func (t *KVCleanupTask) Name() string {
	return "KVCleanup"
}

// LoopInterval 返回执行间隔
func (t *KVCleanupTask) LoopInterval() time.Duration {
	return time.Hour
}

// IsStartupRun 是否立即执行一次
func (t *KVCleanupTask) IsStartupRun() bool {
	return true
}

// Run 执行清理任务
func (t *KVCleanupTask) Run(ctx context.Context) error {
	purged, err := t.app.KVRepo.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	pruned := t.app.GateService.PruneAttempts()

	if purged > 0 || pruned > 0 {
		t.app.Logger().Info("task log",
			zap.String(logger.FieldTask, t.Name()),
			zap.Int64("purged", purged),
			zap.Int("prunedAttempts", pruned))
	}
	return nil
}

// NewKVCleanupTask 创建清理任务
func NewKVCleanupTask(appContainer *app.App) (Task, error) {
	return &KVCleanupTask{app: appContainer}, nil
}

func init() {
	RegisterWithApp(NewKVCleanupTask)
}
