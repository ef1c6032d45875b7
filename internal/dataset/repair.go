package dataset

import "github.com/haierkeys/cloudnav-sync-service/internal/domain"

// EnsureCommonCategory 保证常用推荐存在且位于第一位，其余分类相对顺序不变
func EnsureCommonCategory(cats []domain.Category) []domain.Category {
	idx := -1
	for i, c := range cats {
		if c.ID == domain.CommonCategoryID {
			idx = i
			break
		}
	}

	out := make([]domain.Category, 0, len(cats)+1)
	switch {
	case idx < 0:
		out = append(out, domain.CommonCategory())
		out = append(out, cats...)
	case idx == 0:
		out = append(out, cats...)
	default:
		out = append(out, cats[idx])
		out = append(out, cats[:idx]...)
		out = append(out, cats[idx+1:]...)
	}
	return out
}

// MigrateOrphanLinks 分类不存在的链接归入常用推荐
func MigrateOrphanLinks(links []domain.Link, cats []domain.Category) []domain.Link {
	valid := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		valid[c.ID] = struct{}{}
	}

	out := domain.CloneLinks(links)
	for i := range out {
		if _, ok := valid[out[i].CategoryID]; !ok {
			out[i].CategoryID = domain.CommonCategoryID
		}
	}
	return out
}

// Repair 加载任何来源的数据后都要执行，结果满足：
// categories[0] 为常用推荐，所有链接的分类都存在。重复执行结果不变
func Repair(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category) {
	fixed := EnsureCommonCategory(cats)
	return MigrateOrphanLinks(links, fixed), fixed
}

// RepairDocument 返回修复后的副本
func RepairDocument(doc *domain.Document) *domain.Document {
	out := doc.Clone()
	out.Links, out.Categories = Repair(doc.Links, doc.Categories)
	return out
}
