package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"github.com/haierkeys/cloudnav-sync-service/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DocumentService 文档读写
type DocumentService interface {
	// Get 读取当前文档
	Get(ctx context.Context) (*domain.Document, error)
	// Save 清洗客户端数据后按 baseVersion 条件写入
	Save(ctx context.Context, req *dto.DocumentSaveRequest) (*domain.WriteResult, error)
	// Replace 写入已是领域类型的数据（恢复备份等），baseVersion 为 nil 时使用当前版本
	Replace(ctx context.Context, baseVersion *int64, links []domain.Link, categories []domain.Category) (*domain.WriteResult, error)
}

type documentService struct {
	repo    domain.DocumentRepository
	limits  LimitsServiceConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	sf      singleflight.Group
	now     func() time.Time
}

// NewDocumentService 创建 DocumentService 实例
func NewDocumentService(repo domain.DocumentRepository, limits LimitsServiceConfig, m *metrics.Metrics, logger *zap.Logger) DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &documentService{repo: repo, limits: limits, metrics: m, logger: logger, now: time.Now}
}

// Get 合并并发读取
// 共享的读取不随单个调用方取消，调用方取消时只有它自己提前返回
func (s *documentService) Get(ctx context.Context) (*domain.Document, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(domain.KeyDocument, func() (any, error) {
		return s.repo.Get(shared)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*domain.Document).Clone(), nil
	}
}

func (s *documentService) Save(ctx context.Context, req *dto.DocumentSaveRequest) (*domain.WriteResult, error) {
	rawLinks, rawCats := pickArrays(req)

	if s.limits.MaxLinks > 0 && len(rawLinks) > s.limits.MaxLinks {
		return nil, domain.ErrTooManyLinks
	}
	if s.limits.MaxCategories > 0 && len(rawCats) > s.limits.MaxCategories {
		return nil, domain.ErrTooManyCategories
	}

	base, err := s.resolveBase(ctx, req.BaseVersion)
	if err != nil {
		return nil, err
	}

	now := s.now()
	links := dataset.SanitizeLinks(rawLinks, now)
	cats := dataset.SanitizeCategories(rawCats)
	return s.write(ctx, base, links, cats)
}

func (s *documentService) Replace(ctx context.Context, baseVersion *int64, links []domain.Link, categories []domain.Category) (*domain.WriteResult, error) {
	if s.limits.MaxLinks > 0 && len(links) > s.limits.MaxLinks {
		return nil, domain.ErrTooManyLinks
	}
	if s.limits.MaxCategories > 0 && len(categories) > s.limits.MaxCategories {
		return nil, domain.ErrTooManyCategories
	}

	var base int64
	if baseVersion != nil {
		base = *baseVersion
	} else {
		cur, err := s.repo.Get(ctx)
		if err != nil {
			return nil, err
		}
		base = cur.Version
	}
	return s.write(ctx, base, links, categories)
}

func (s *documentService) write(ctx context.Context, base int64, links []domain.Link, cats []domain.Category) (*domain.WriteResult, error) {
	doc, err := s.repo.CompareAndSwap(ctx, base, links, cats)
	if err != nil {
		var ce *domain.ConflictError
		if errors.As(err, &ce) {
			s.observe("conflict")
			s.logger.Info("document write conflict",
				zap.Int64(logger.FieldBaseVersion, base),
				zap.Int64(logger.FieldVersion, ce.CurrentVersion),
			)
			return nil, err
		}
		s.observe("error")
		return nil, err
	}

	s.observe("ok")
	s.logger.Debug("document saved",
		zap.Int64(logger.FieldVersion, doc.Version),
		zap.Int(logger.FieldLinks, len(doc.Links)),
		zap.Int(logger.FieldCategories, len(doc.Categories)),
	)
	return &domain.WriteResult{Version: doc.Version, UpdatedAt: doc.UpdatedAt}, nil
}

// resolveBase baseVersion 缺失时使用当前版本；无法解析为数字时必然冲突
func (s *documentService) resolveBase(ctx context.Context, raw any) (int64, error) {
	if v, ok := parseVersion(raw); ok {
		return v, nil
	}
	cur, err := s.repo.Get(ctx)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return cur.Version, nil
	}
	return 0, &domain.ConflictError{ExpectedVersion: -1, CurrentVersion: cur.Version}
}

func (s *documentService) observe(result string) {
	if s.metrics != nil {
		s.metrics.DocumentWrites.WithLabelValues(result).Inc()
	}
}

func parseVersion(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// pickArrays 优先使用顶层 links/categories，其次 data 下的字段，非数组按空处理
func pickArrays(req *dto.DocumentSaveRequest) ([]any, []any) {
	links, ok := req.Links.([]any)
	if !ok && req.Data != nil {
		links, _ = req.Data.Links.([]any)
	}
	cats, ok := req.Categories.([]any)
	if !ok && req.Data != nil {
		cats, _ = req.Data.Categories.([]any)
	}
	return links, cats
}
