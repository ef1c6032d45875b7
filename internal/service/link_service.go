package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// LinkService 快速添加链接
type LinkService interface {
	Add(ctx context.Context, req *dto.LinkAddRequest) (*dto.LinkAddResponse, error)
}

type linkService struct {
	repo   domain.DocumentRepository
	limits LimitsServiceConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewLinkService 创建 LinkService 实例
func NewLinkService(repo domain.DocumentRepository, limits LimitsServiceConfig, logger *zap.Logger) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{repo: repo, limits: limits, logger: logger, now: time.Now}
}

// Add 新链接放在最前面，分类按 ChooseInboxCategory 选择
func (s *linkService) Add(ctx context.Context, req *dto.LinkAddRequest) (*dto.LinkAddResponse, error) {
	if req.Title == "" {
		return nil, &ParamError{Field: "title", Reason: "missing or invalid title"}
	}
	if req.URL == "" {
		return nil, &ParamError{Field: "url", Reason: "missing or invalid url"}
	}
	if len(req.URL) > dataset.MaxURLLength || !dataset.IsValidURL(req.URL) {
		return nil, &ParamError{Field: "url", Reason: "invalid url format"}
	}
	if utf8.RuneCountInString(req.Title) > dataset.MaxTitleLength {
		return nil, &ParamError{Field: "title", Reason: "title too long"}
	}

	var (
		link    domain.Link
		catName string
	)
	doc, err := s.repo.Update(ctx, func(doc *domain.Document) error {
		if s.limits.MaxLinks > 0 && len(doc.Links) >= s.limits.MaxLinks {
			return domain.ErrTooManyLinks
		}

		now := s.now()
		var catID string
		catID, catName = dataset.ChooseInboxCategory(doc.Categories, req.CategoryID)

		link = domain.Link{
			ID:         dataset.NewLinkID(now),
			Title:      dataset.Truncate(dataset.SanitizeString(req.Title), dataset.MaxTitleLength),
			URL:        dataset.Truncate(req.URL, dataset.MaxURLLength),
			CategoryID: catID,
			CreatedAt:  now.UnixMilli(),
		}
		if req.Description != "" {
			link.Description = dataset.Truncate(dataset.SanitizeString(req.Description), dataset.MaxDescriptionLength)
		}
		doc.Links = append([]domain.Link{link}, doc.Links...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("link added",
		zap.String(logger.FieldAction, "link.add"),
		zap.String("categoryId", link.CategoryID),
		zap.Int64(logger.FieldVersion, doc.Version),
	)
	return &dto.LinkAddResponse{Success: true, Link: link, CategoryName: catName, Version: doc.Version}, nil
}
