// Package metrics 定义 prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 服务指标集合，每个 App 实例使用独立的 Registry
type Metrics struct {
	Registry        *prometheus.Registry
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	DocumentWrites  *prometheus.CounterVec
	AuthAttempts    *prometheus.CounterVec
	BackupSnapshots *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudnav_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cloudnav_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		DocumentWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudnav_document_writes_total",
			Help: "Document writes by result.",
		}, []string{"result"}),
		AuthAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudnav_auth_attempts_total",
			Help: "Credential checks by result.",
		}, []string{"result"}),
		BackupSnapshots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudnav_backup_snapshots_total",
			Help: "Scheduled and manual backup snapshots by result.",
		}, []string{"result"}),
	}
}
