package dataset

import (
	"reflect"
	"testing"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildInput(catIDs, linkCats []string, withCommon bool) ([]domain.Link, []domain.Category) {
	cats := make([]domain.Category, 0, len(catIDs)+1)
	for _, id := range catIDs {
		cats = append(cats, domain.Category{ID: id, Name: id})
	}
	if withCommon && len(cats) > 0 {
		// 放到中间位置，验证会被移到第一位
		mid := len(cats) / 2
		cats = append(cats[:mid], append([]domain.Category{domain.CommonCategory()}, cats[mid:]...)...)
	}
	links := make([]domain.Link, 0, len(linkCats))
	for i, c := range linkCats {
		links = append(links, domain.Link{ID: string(rune('a' + i%26)), CategoryID: c})
	}
	return links, cats
}

// 修复后 categories[0] 为常用推荐且所有链接分类合法，重复修复结果不变
func TestRepairProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("repair establishes invariants", prop.ForAll(
		func(catIDs, linkCats []string, withCommon bool) bool {
			links, cats := buildInput(catIDs, linkCats, withCommon)
			fixedLinks, fixedCats := Repair(links, cats)

			if len(fixedCats) == 0 || fixedCats[0].ID != domain.CommonCategoryID {
				return false
			}
			valid := map[string]bool{}
			for _, c := range fixedCats {
				valid[c.ID] = true
			}
			for _, l := range fixedLinks {
				if !valid[l.CategoryID] {
					return false
				}
			}
			return len(fixedLinks) == len(links)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
		gen.Bool(),
	))

	properties.Property("repair is idempotent", prop.ForAll(
		func(catIDs, linkCats []string, withCommon bool) bool {
			links, cats := buildInput(catIDs, linkCats, withCommon)
			l1, c1 := Repair(links, cats)
			l2, c2 := Repair(l1, c1)
			return reflect.DeepEqual(l1, l2) && reflect.DeepEqual(c1, c2)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name      string
		cats      []domain.Category
		links     []domain.Link
		wantCats  []string
		wantLinks []string
	}{
		{
			name:      "empty document gets common",
			wantCats:  []string{"common"},
			wantLinks: []string{},
		},
		{
			name:      "common moved to front keeping relative order",
			cats:      []domain.Category{{ID: "dev"}, {ID: "read"}, domain.CommonCategory(), {ID: "ai"}},
			links:     []domain.Link{{ID: "1", CategoryID: "dev"}},
			wantCats:  []string{"common", "dev", "read", "ai"},
			wantLinks: []string{"dev"},
		},
		{
			name:      "orphan links reassigned",
			cats:      []domain.Category{{ID: "dev"}},
			links:     []domain.Link{{ID: "1", CategoryID: "gone"}, {ID: "2", CategoryID: "dev"}},
			wantCats:  []string{"common", "dev"},
			wantLinks: []string{"common", "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, cats := Repair(tt.links, tt.cats)

			gotCats := make([]string, 0, len(cats))
			for _, c := range cats {
				gotCats = append(gotCats, c.ID)
			}
			gotLinks := make([]string, 0, len(links))
			for _, l := range links {
				gotLinks = append(gotLinks, l.CategoryID)
			}
			assert.Equal(t, tt.wantCats, gotCats)
			assert.Equal(t, tt.wantLinks, gotLinks)
		})
	}
}

func TestRepairDoesNotMutateInput(t *testing.T) {
	links := []domain.Link{{ID: "1", CategoryID: "gone"}}
	cats := []domain.Category{{ID: "dev"}}

	_, _ = Repair(links, cats)

	require.Equal(t, "gone", links[0].CategoryID)
	require.Len(t, cats, 1)
}

func TestDeleteCategory(t *testing.T) {
	links := []domain.Link{{ID: "1", CategoryID: "dev"}, {ID: "2", CategoryID: "read"}}
	cats := []domain.Category{domain.CommonCategory(), {ID: "dev"}, {ID: "read"}}

	t.Run("common is reserved", func(t *testing.T) {
		_, _, err := DeleteCategory(links, cats, domain.CommonCategoryID)
		assert.ErrorIs(t, err, domain.ErrReservedCategory)
	})

	t.Run("links move to common", func(t *testing.T) {
		gotLinks, gotCats, err := DeleteCategory(links, cats, "dev")
		require.NoError(t, err)
		assert.Len(t, gotCats, 2)
		assert.Equal(t, domain.CommonCategoryID, gotLinks[0].CategoryID)
		assert.Equal(t, "read", gotLinks[1].CategoryID)
	})

	t.Run("common restored when missing", func(t *testing.T) {
		_, gotCats, err := DeleteCategory(nil, []domain.Category{{ID: "dev"}, {ID: "read"}}, "dev")
		require.NoError(t, err)
		require.Len(t, gotCats, 2)
		assert.Equal(t, domain.CommonCategoryID, gotCats[0].ID)
	})
}
