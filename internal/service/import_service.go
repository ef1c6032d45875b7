package service

import (
	"context"
	"io"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// ImportService 解析浏览器导出的书签文件，合并由客户端决定
type ImportService interface {
	ParseBookmarks(ctx context.Context, r io.Reader) (*domain.ImportResult, error)
}

type importService struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewImportService 创建 ImportService 实例
func NewImportService(logger *zap.Logger) ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &importService{logger: logger, now: time.Now}
}

func (s *importService) ParseBookmarks(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	res, err := dataset.ParseBookmarks(r, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("bookmarks parsed",
		zap.Int(logger.FieldLinks, len(res.Links)),
		zap.Int(logger.FieldCategories, len(res.Categories)),
	)
	return res, nil
}
