package api_router

import (
	"expvar"
	"sync"
	"sync/atomic"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"

	"github.com/gin-gonic/gin"
)

var (
	expvarOnce sync.Once
	expvarApp  atomic.Pointer[app.App]
)

// PublishExpvar 在 /debug/vars 中导出 worker pool 与写队列状态
// 多次调用时以最后一个 App 为准
func PublishExpvar(a *app.App) {
	expvarApp.Store(a)
	expvarOnce.Do(func() {
		expvar.Publish("cloudnav", expvar.Func(func() any {
			cur := expvarApp.Load()
			if cur == nil {
				return nil
			}
			return map[string]any{
				"workerPool":      cur.WorkerPool().GetMetrics(),
				"writeQueueCount": cur.WriteQueueManager().QueueCount(),
				"store":           cur.Dao.Backend(),
			}
		}))
	})
}

// Expvar 导出系统运行时指标
func Expvar(c *gin.Context) {
	expvar.Handler().ServeHTTP(c.Writer, c.Request)
}
