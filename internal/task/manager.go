package task

import (
	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/safe_close"
	"go.uber.org/zap"
)

// Manager 任务管理器,负责创建和管理所有任务
type Manager struct {
	app       *app.App
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(appContainer *app.App, sc *safe_close.SafeClose) *Manager {
	return &Manager{
		app:       appContainer,
		scheduler: NewScheduler(appContainer.Logger(), sc),
		logger:    appContainer.Logger(),
	}
}

// RegisterTasks 通过注册表创建所有任务
func (m *Manager) RegisterTasks() error {
	for _, factory := range GetFactories() {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			return err
		}
		if t == nil {
			continue
		}
		m.scheduler.AddTask(t)
	}
	return nil
}

// Tasks 已注册的任务名称
func (m *Manager) Tasks() []string {
	names := make([]string, 0, len(m.scheduler.tasks))
	for _, t := range m.scheduler.tasks {
		names = append(names, t.Name())
	}
	return names
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
