package task

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/pkg/safe_close"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, mutate ...func(cfg *app.AppConfig)) *app.App {
	t.Helper()
	cfg, err := app.DefaultConfig()
	require.NoError(t, err)
	cfg.Database.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Database.MaxIdleConns = 1
	for _, fn := range mutate {
		fn(cfg)
	}

	db, rdb, err := app.OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	a, err := app.NewApp(cfg, zap.NewNop(), db, rdb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func withLocalBackup(dir string) func(cfg *app.AppConfig) {
	return func(cfg *app.AppConfig) {
		cfg.Backup.Enabled = true
		cfg.Backup.KeepCopy = false
		cfg.Backup.Cron = "0 3 * * *"
		cfg.Backup.Storage.Type = "localfs"
		cfg.Backup.Storage.SavePath = dir
	}
}

func TestManager_RegisterTasks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *app.AppConfig)
		want   []string
	}{
		{
			name:   "defaults",
			mutate: func(cfg *app.AppConfig) {},
			want:   []string{"KVCleanup"},
		},
		{
			name: "backup and release check",
			mutate: func(cfg *app.AppConfig) {
				withLocalBackup(t.TempDir())(cfg)
				cfg.App.ReleaseCheckURL = "http://127.0.0.1:1/release.json"
			},
			want: []string{"BackupScheduled", "KVCleanup", "check_version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, tt.mutate)
			m := NewManager(a, safe_close.NewSafeClose())
			require.NoError(t, m.RegisterTasks())
			assert.ElementsMatch(t, tt.want, m.Tasks())
		})
	}
}

func TestBackupTask_Run(t *testing.T) {
	a := newTestApp(t, withLocalBackup(t.TempDir()))
	ctx := context.Background()

	created, err := NewBackupTask(a)
	require.NoError(t, err)
	require.NotNil(t, created)
	task := created.(*BackupTask)

	base := time.Date(2026, 5, 1, 2, 0, 0, 0, time.Local)
	task.last = base
	task.now = func() time.Time { return base.Add(30 * time.Minute) }

	// 02:00 - 02:30 之间没有计划执行点
	require.NoError(t, task.Run(ctx))
	_, err = a.BackupService.Restore(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrBackupNotFound)

	task.now = func() time.Time { return base.Add(90 * time.Minute) }
	require.NoError(t, task.Run(ctx))
	assert.Equal(t, base.Add(90*time.Minute), task.last)

	res, err := a.BackupService.Restore(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Version)
}

func TestCheckVersionTask_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"label":"release","message":"v99.1.0"}`))
	}))
	defer srv.Close()

	a := newTestApp(t, func(cfg *app.AppConfig) {
		cfg.App.ReleaseCheckURL = srv.URL
	})
	created, err := NewCheckVersionTask(a)
	require.NoError(t, err)
	require.NotNil(t, created)

	require.NoError(t, created.Run(context.Background()))
	cv := a.CheckVersion()
	assert.True(t, cv.VersionIsNew)
	assert.Equal(t, "99.1.0", cv.VersionNewName)
}

func TestCheckVersionTask_BadVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"not-a-version"}`))
	}))
	defer srv.Close()

	a := newTestApp(t, func(cfg *app.AppConfig) {
		cfg.App.ReleaseCheckURL = srv.URL
	})
	created, err := NewCheckVersionTask(a)
	require.NoError(t, err)
	assert.Error(t, created.Run(context.Background()))
	assert.False(t, a.CheckVersion().VersionIsNew)
}

func TestKVCleanupTask_Run(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.KVRepo.Put(ctx, domain.KeyFaviconPrefix+"old.example", "https://old.example/favicon.ico", time.Millisecond))
	require.NoError(t, a.KVRepo.Put(ctx, domain.KeyFaviconPrefix+"new.example", "https://new.example/favicon.ico", time.Hour))
	time.Sleep(20 * time.Millisecond)

	created, err := NewKVCleanupTask(a)
	require.NoError(t, err)
	require.NoError(t, created.Run(ctx))

	n, err := a.KVRepo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := a.KVRepo.Get(ctx, domain.KeyFaviconPrefix+"new.example")
	require.NoError(t, err)
	assert.True(t, ok)
}

type countingTask struct {
	runs     atomic.Int32
	interval time.Duration
	startup  bool
	fail     bool
	panics   bool
}

func (c *countingTask) Name() string                { return "counting" }
func (c *countingTask) LoopInterval() time.Duration { return c.interval }
func (c *countingTask) IsStartupRun() bool          { return c.startup }
func (c *countingTask) Run(ctx context.Context) error {
	c.runs.Add(1)
	if c.panics {
		panic("boom")
	}
	if c.fail {
		return errors.New("failed")
	}
	return nil
}

func TestScheduler(t *testing.T) {
	tests := []struct {
		name    string
		task    *countingTask
		minRuns int32
	}{
		{name: "loop", task: &countingTask{interval: 5 * time.Millisecond}, minRuns: 2},
		{name: "startup only", task: &countingTask{startup: true}, minRuns: 1},
		{name: "errors keep looping", task: &countingTask{interval: 5 * time.Millisecond, fail: true}, minRuns: 2},
		{name: "panics keep looping", task: &countingTask{interval: 5 * time.Millisecond, panics: true, startup: true}, minRuns: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := safe_close.NewSafeClose()
			s := NewScheduler(zap.NewNop(), sc)
			s.AddTask(tt.task)
			s.Start()

			assert.Eventually(t, func() bool {
				return tt.task.runs.Load() >= tt.minRuns
			}, time.Second, 2*time.Millisecond)

			sc.SendCloseSignal(nil)
			assert.NoError(t, sc.WaitClosed())
		})
	}
}
