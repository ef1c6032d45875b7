package dataset

import (
	"sort"
	"strconv"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
)

func orderKey(l domain.Link) int64 {
	if l.Order != nil {
		return *l.Order
	}
	return l.CreatedAt
}

// CompareByOrder 有 order 用 order，否则用 createdAt，升序
func CompareByOrder(a, b domain.Link) int {
	ka, kb := orderKey(a), orderKey(b)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return 0
}

// ComparePinnedFirst 置顶在前；置顶内按 pinnedOrder 升序，缺失的排在后面
func ComparePinnedFirst(a, b domain.Link) int {
	if a.Pinned != b.Pinned {
		if a.Pinned {
			return -1
		}
		return 1
	}
	if a.Pinned {
		switch {
		case a.PinnedOrder != nil && b.PinnedOrder == nil:
			return -1
		case a.PinnedOrder == nil && b.PinnedOrder != nil:
			return 1
		case a.PinnedOrder != nil && b.PinnedOrder != nil && *a.PinnedOrder != *b.PinnedOrder:
			if *a.PinnedOrder < *b.PinnedOrder {
				return -1
			}
			return 1
		}
	}
	return CompareByOrder(a, b)
}

// SortByOrder 稳定排序，返回新切片
func SortByOrder(links []domain.Link) []domain.Link {
	out := domain.CloneLinks(links)
	sort.SliceStable(out, func(i, j int) bool { return CompareByOrder(out[i], out[j]) < 0 })
	return out
}

// SortPinnedFirst 稳定排序，返回新切片
func SortPinnedFirst(links []domain.Link) []domain.Link {
	out := domain.CloneLinks(links)
	sort.SliceStable(out, func(i, j int) bool { return ComparePinnedFirst(out[i], out[j]) < 0 })
	return out
}

// PinnedCount 当前置顶数量
func PinnedCount(links []domain.Link) int64 {
	var n int64
	for _, l := range links {
		if l.Pinned {
			n++
		}
	}
	return n
}

// TogglePin 切换置顶：置顶时 pinnedOrder 为当前置顶数量，取消时清空
func TogglePin(links []domain.Link, id string) ([]domain.Link, bool) {
	count := PinnedCount(links)
	out := domain.CloneLinks(links)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		out[i].Pinned = !out[i].Pinned
		if out[i].Pinned {
			n := count
			out[i].PinnedOrder = &n
		} else {
			out[i].PinnedOrder = nil
		}
		return out, true
	}
	return out, false
}

// NewLinkID 毫秒时间戳作为 id
func NewLinkID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// InsertLink 新增链接：
// 置顶链接插入到第一个非置顶链接之前（没有则追加），其余链接追加后整体按置顶优先和 CompareByOrder 排序
func InsertLink(links []domain.Link, link domain.Link) []domain.Link {
	if link.Pinned {
		if link.PinnedOrder == nil {
			n := PinnedCount(links)
			link.PinnedOrder = &n
		}
		out := make([]domain.Link, 0, len(links)+1)
		inserted := false
		for _, l := range domain.CloneLinks(links) {
			if !inserted && !l.Pinned {
				out = append(out, link)
				inserted = true
			}
			out = append(out, l)
		}
		if !inserted {
			out = append(out, link)
		}
		return out
	}

	link.PinnedOrder = nil
	out := append(domain.CloneLinks(links), link)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		return CompareByOrder(a, b) < 0
	})
	return out
}

// VisibleLinks 过滤锁定分类与搜索词后按 CompareByOrder 排序
func VisibleLinks(links []domain.Link, cats []domain.Category, unlocked map[string]bool, query string) []domain.Link {
	locked := make(map[string]bool)
	for _, c := range cats {
		if c.Password != "" && !unlocked[c.ID] {
			locked[c.ID] = true
		}
	}

	q := lower(query)
	out := make([]domain.Link, 0, len(links))
	for _, l := range links {
		if locked[l.CategoryID] {
			continue
		}
		if q != "" && !contains(l.Title, q) && !contains(l.URL, q) && !contains(l.Description, q) {
			continue
		}
		out = append(out, l)
	}
	return SortByOrder(out)
}
