package task

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// BackupTask 按 backup.cron 将文档写入服务端备份存储
type BackupTask struct {
	app    *app.App
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

// Name returns the task name
func (t *BackupTask) Name() string {
	return "BackupScheduled"
}

// LoopInterval 每分钟检查一次是否到达计划时间
func (t *BackupTask) LoopInterval() time.Duration {
	return 1 * time.Minute
}

// IsStartupRun 启动时只记录起点，不立即备份
func (t *BackupTask) IsStartupRun() bool {
	return false
}

// Run 上次检查到现在之间有计划执行点时做一次快照
func (t *BackupTask) Run(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	due := t.app.BackupService.Due(t.last, now)
	t.last = now
	if !due {
		return nil
	}

	res, err := t.app.BackupService.Snapshot(ctx)
	if err != nil {
		return err
	}
	t.logger.Info("scheduled backup done",
		zap.String(logger.FieldTask, t.Name()),
		zap.String(logger.FieldFileKey, res.FileKey),
		zap.Int64(logger.FieldVersion, res.Version))
	return nil
}

// NewBackupTask 未启用服务端备份时返回 nil
func NewBackupTask(appContainer *app.App) (Task, error) {
	if appContainer.BackupService == nil || !appContainer.BackupService.Enabled() {
		return nil, nil
	}
	return &BackupTask{
		app:    appContainer,
		logger: appContainer.Logger(),
		now:    time.Now,
		last:   time.Now(),
	}, nil
}

func init() {
	RegisterWithApp(NewBackupTask)
}
