package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkAdd(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_760_000_000_000)

	cats := []domain.Category{
		domain.CommonCategory(),
		{ID: "dev", Name: "开发"},
		{ID: "inbox", Name: "Inbox 收集"},
	}

	tests := []struct {
		name     string
		req      dto.LinkAddRequest
		wantCat  string
		wantName string
		wantErr  string
	}{
		{"explicit category", dto.LinkAddRequest{Title: "Go", URL: "https://go.dev", CategoryID: "dev"}, "dev", "开发", ""},
		{"unknown category uses inbox", dto.LinkAddRequest{Title: "Go", URL: "https://go.dev", CategoryID: "nope"}, "inbox", "Inbox 收集", ""},
		{"no category uses inbox", dto.LinkAddRequest{Title: "Go", URL: "https://go.dev"}, "inbox", "Inbox 收集", ""},
		{"missing title", dto.LinkAddRequest{URL: "https://go.dev"}, "", "", "title"},
		{"missing url", dto.LinkAddRequest{Title: "Go"}, "", "", "url"},
		{"bad url", dto.LinkAddRequest{Title: "Go", URL: "exa mple.com"}, "", "", "url"},
		{"title too long", dto.LinkAddRequest{Title: strings.Repeat("t", 600), URL: "https://go.dev"}, "", "", "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemDocRepo()
			repo.doc.Categories = append([]domain.Category{}, cats...)
			repo.doc.Links = []domain.Link{{ID: "old", Title: "Old", URL: "https://old.com", CategoryID: "dev"}}

			svc := NewLinkService(repo, DefaultServiceConfig().Limits, nil).(*linkService)
			svc.now = func() time.Time { return now }

			res, err := svc.Add(ctx, &tt.req)
			if tt.wantErr != "" {
				var pe *ParamError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, tt.wantErr, pe.Field)
				assert.Equal(t, int64(1), repo.doc.Version)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, tt.wantCat, res.Link.CategoryID)
			assert.Equal(t, tt.wantName, res.CategoryName)
			assert.Equal(t, int64(2), res.Version)
			assert.Equal(t, "1760000000000", res.Link.ID)
			assert.Equal(t, now.UnixMilli(), res.Link.CreatedAt)

			// 新链接在最前
			require.Len(t, repo.doc.Links, 2)
			assert.Equal(t, res.Link.ID, repo.doc.Links[0].ID)
			assert.Equal(t, "old", repo.doc.Links[1].ID)
		})
	}
}

func TestLinkAddLimit(t *testing.T) {
	repo := newMemDocRepo()
	repo.doc.Links = []domain.Link{{ID: "a"}, {ID: "b"}}
	svc := NewLinkService(repo, LimitsServiceConfig{MaxLinks: 2}, nil)

	_, err := svc.Add(context.Background(), &dto.LinkAddRequest{Title: "Go", URL: "https://go.dev"})
	assert.ErrorIs(t, err, domain.ErrTooManyLinks)
	assert.Equal(t, int64(1), repo.doc.Version)
}

func TestLinkAddEmptyDocument(t *testing.T) {
	repo := newMemDocRepo()
	svc := NewLinkService(repo, DefaultServiceConfig().Limits, nil)

	res, err := svc.Add(context.Background(), &dto.LinkAddRequest{Title: "Go", URL: "https://go.dev", Description: "<i>lang</i>"})
	require.NoError(t, err)
	assert.Equal(t, domain.CommonCategoryID, res.Link.CategoryID)
	assert.NotContains(t, res.Link.Description, "<")
}
