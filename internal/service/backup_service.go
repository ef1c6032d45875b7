package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"github.com/haierkeys/cloudnav-sync-service/pkg/metrics"
	"github.com/haierkeys/cloudnav-sync-service/pkg/storage"
	"github.com/haierkeys/cloudnav-sync-service/pkg/workerpool"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StorageFactory 按配置创建存储客户端
type StorageFactory func(cfg *storage.Config) (storage.Storager, error)

// BackupUpstreamError 用户 WebDAV 服务返回非成功状态
type BackupUpstreamError struct {
	Status int
}

func (e *BackupUpstreamError) Error() string {
	return fmt.Sprintf("webdav error: %d", e.Status)
}

// BackupService 备份与恢复
type BackupService interface {
	// WebDAV 代理客户端对自有 WebDAV 服务的 check/upload/download
	WebDAV(ctx context.Context, req *dto.WebDAVRequest) (any, error)
	// Snapshot 将当前文档写入服务端备份存储
	Snapshot(ctx context.Context) (*dto.BackupSnapshotResponse, error)
	// Restore 读取服务端备份，修复后条件写入
	Restore(ctx context.Context, baseVersion *int64) (*domain.WriteResult, error)
	// Enabled 是否配置了服务端备份
	Enabled() bool
	// Due 判断 [last, now] 之间是否有计划执行点
	Due(last, now time.Time) bool
}

type backupService struct {
	docs     DocumentService
	config   ConfigService
	target   storage.Storager
	factory  StorageFactory
	pool     *workerpool.Pool
	cfg      BackupServiceConfig
	schedule cron.Schedule
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewBackupService 创建 BackupService 实例
// target 为 nil 时只提供 WebDAV 代理
func NewBackupService(
	docs DocumentService,
	config ConfigService,
	target storage.Storager,
	factory StorageFactory,
	pool *workerpool.Pool,
	cfg BackupServiceConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) (BackupService, error) {
	if factory == nil {
		factory = storage.NewClient
	}
	if cfg.FileKey == "" {
		cfg.FileKey = BackupFileKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &backupService{
		docs:    docs,
		config:  config,
		target:  target,
		factory: factory,
		pool:    pool,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
	if cfg.Enabled && cfg.Cron != "" {
		sch, err := cron.ParseStandard(cfg.Cron)
		if err != nil {
			return nil, fmt.Errorf("parse backup cron %q: %w", cfg.Cron, err)
		}
		s.schedule = sch
	}
	return s, nil
}

func (s *backupService) WebDAV(ctx context.Context, req *dto.WebDAVRequest) (any, error) {
	c := req.Config
	if c == nil || strings.TrimSpace(c.URL) == "" || c.Username == "" || c.Password == "" {
		return nil, &ParamError{Field: "config", Reason: "missing configuration"}
	}

	client, err := s.factory(&storage.Config{
		Type:     storage.WebDAV,
		Endpoint: strings.TrimSpace(c.URL),
		User:     c.Username,
		Password: c.Password,
	})
	if err != nil {
		return nil, &ParamError{Field: "config", Reason: err.Error()}
	}

	switch req.Operation {
	case dto.WebDAVCheck:
		return webdavResult(client.Check(ctx), http.StatusMultiStatus)

	case dto.WebDAVUpload:
		payload := req.Payload
		if payload == nil {
			payload = &domain.BackupPayload{Links: []domain.Link{}, Categories: []domain.Category{}}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		_, err = client.SendContent(ctx, s.cfg.FileKey, data)
		return webdavResult(err, http.StatusCreated)

	case dto.WebDAVDownload:
		data, err := client.ReadContent(ctx, s.cfg.FileKey)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, domain.ErrBackupNotFound
			}
			if status, ok := storage.StatusCode(err); ok {
				return nil, &BackupUpstreamError{Status: status}
			}
			return nil, err
		}
		if !json.Valid(data) {
			return nil, &BackupUpstreamError{Status: http.StatusBadGateway}
		}
		return domain.RawJSON(data), nil
	}

	return nil, &ParamError{Field: "operation", Reason: "invalid operation"}
}

// webdavResult 远端返回的错误状态码原样告知客户端
func webdavResult(err error, okStatus int) (any, error) {
	if err == nil {
		return &dto.WebDAVResponse{Success: true, Status: okStatus}, nil
	}
	if status, ok := storage.StatusCode(err); ok {
		return &dto.WebDAVResponse{Success: false, Status: status}, nil
	}
	return nil, err
}

func (s *backupService) Enabled() bool {
	return s.cfg.Enabled && s.target != nil
}

func (s *backupService) Due(last, now time.Time) bool {
	if s.schedule == nil {
		return false
	}
	next := s.schedule.Next(last)
	return !next.After(now)
}

func (s *backupService) Snapshot(ctx context.Context) (*dto.BackupSnapshotResponse, error) {
	if s.target == nil {
		return nil, ErrBackupDisabled
	}

	doc, err := s.docs.Get(ctx)
	if err != nil {
		return nil, err
	}
	search, err := s.config.GetSearch(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	data, err := json.Marshal(domain.BackupPayload{
		Links:        doc.Links,
		Categories:   doc.Categories,
		SearchConfig: search,
		Version:      doc.Version,
		ExportedAt:   now.UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	key, err := s.target.SendContent(ctx, s.cfg.FileKey, data)
	if err != nil {
		s.observe("error")
		return nil, fmt.Errorf("send backup: %w", err)
	}
	s.observe("ok")

	if s.cfg.KeepCopy {
		s.saveCopy(data, now)
	}

	s.logger.Info("backup snapshot saved",
		zap.String(logger.FieldFileKey, key),
		zap.Int64(logger.FieldVersion, doc.Version),
		zap.Int(logger.FieldSize, len(data)),
	)
	return &dto.BackupSnapshotResponse{FileKey: key, Version: doc.Version, Links: len(doc.Links)}, nil
}

// saveCopy 带时间戳的副本在后台写入，失败只记录日志
func (s *backupService) saveCopy(data []byte, now time.Time) {
	copyKey := strings.TrimSuffix(s.cfg.FileKey, ".json") + "_" + now.Format("20060102150405") + ".json"
	job := func(ctx context.Context) error {
		if _, err := s.target.SendContent(ctx, copyKey, data); err != nil {
			s.logger.Warn("backup copy failed", zap.String(logger.FieldFileKey, copyKey), zap.Error(err))
			return err
		}
		return nil
	}
	if s.pool == nil {
		_ = job(context.Background())
		return
	}
	if err := s.pool.SubmitAsync(context.Background(), job); err != nil {
		s.logger.Warn("backup copy not scheduled", zap.String(logger.FieldFileKey, copyKey), zap.Error(err))
	}
}

func (s *backupService) Restore(ctx context.Context, baseVersion *int64) (*domain.WriteResult, error) {
	if s.target == nil {
		return nil, ErrBackupDisabled
	}

	data, err := s.target.ReadContent(ctx, s.cfg.FileKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrBackupNotFound
		}
		return nil, fmt.Errorf("read backup: %w", err)
	}

	var p domain.BackupPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, domain.ErrInvalidDocument
	}

	links, cats := dataset.Repair(p.Links, p.Categories)
	res, err := s.docs.Replace(ctx, baseVersion, links, cats)
	if err != nil {
		return nil, err
	}

	if len(p.SearchConfig) > 0 {
		var sc map[string]any
		if json.Unmarshal(p.SearchConfig, &sc) == nil && sc != nil {
			if err := s.config.PutSearch(ctx, sc); err != nil {
				s.logger.Warn("restore search config skipped", zap.Error(err))
			}
		}
	}

	s.logger.Info("backup restored", zap.Int64(logger.FieldVersion, res.Version), zap.Int(logger.FieldLinks, len(links)))
	return res, nil
}

func (s *backupService) observe(result string) {
	if s.metrics != nil {
		s.metrics.BackupSnapshots.WithLabelValues(result).Inc()
	}
}
