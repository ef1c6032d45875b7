package dataset

import (
	"strings"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
)

// inboxKeywords 添加链接未指定分类时优先匹配的分类名关键字
var inboxKeywords = []string{"收集", "未分类", "inbox", "temp", "later"}

// NewLinkInput 新建链接的可编辑字段
type NewLinkInput struct {
	Title       string
	URL         string
	Icon        string
	Description string
	CategoryID  string
	Pinned      bool
}

// AddLink 生成 id 与 createdAt，补全协议后按置顶规则插入
func AddLink(links []domain.Link, in NewLinkInput, now time.Time) ([]domain.Link, domain.Link) {
	link := domain.Link{
		ID:          NewLinkID(now),
		Title:       in.Title,
		URL:         EnsureProtocol(in.URL),
		Icon:        in.Icon,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		CreatedAt:   now.UnixMilli(),
		Pinned:      in.Pinned,
	}
	if link.CategoryID == "" {
		link.CategoryID = domain.CommonCategoryID
	}
	out := InsertLink(links, link)
	for _, l := range out {
		if l.ID == link.ID {
			link = l
			break
		}
	}
	return out, link
}

// EditLink 合并字段，id/createdAt 保持不变
func EditLink(links []domain.Link, id string, in NewLinkInput) ([]domain.Link, bool) {
	out := domain.CloneLinks(links)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		out[i].Title = in.Title
		out[i].URL = EnsureProtocol(in.URL)
		out[i].Icon = in.Icon
		out[i].Description = in.Description
		if in.CategoryID != "" {
			out[i].CategoryID = in.CategoryID
		}
		return out, true
	}
	return out, false
}

// DeleteLink 按 id 删除
func DeleteLink(links []domain.Link, id string) ([]domain.Link, bool) {
	out := make([]domain.Link, 0, len(links))
	found := false
	for _, l := range domain.CloneLinks(links) {
		if l.ID == id {
			found = true
			continue
		}
		out = append(out, l)
	}
	return out, found
}

// DeleteCategory 删除分类并把其下链接移入常用推荐，常用推荐本身不可删除
func DeleteCategory(links []domain.Link, cats []domain.Category, id string) ([]domain.Link, []domain.Category, error) {
	if id == domain.CommonCategoryID {
		return nil, nil, domain.ErrReservedCategory
	}

	rest := make([]domain.Category, 0, len(cats))
	for _, c := range cats {
		if c.ID != id {
			rest = append(rest, c)
		}
	}
	rest = EnsureCommonCategory(rest)

	out := domain.CloneLinks(links)
	for i := range out {
		if out[i].CategoryID == id {
			out[i].CategoryID = domain.CommonCategoryID
		}
	}
	return out, rest, nil
}

// MergeImport 合并导入结果：分类按 id 或名称去重，链接追加后执行 Repair
// 与已有分类同名的导入分类被丢弃，其链接改挂到同名的已有分类
func MergeImport(links []domain.Link, cats []domain.Category, newLinks []domain.Link, newCats []domain.Category) ([]domain.Link, []domain.Category) {
	merged := append([]domain.Category{}, cats...)
	hasCommon := false
	for _, c := range merged {
		if c.ID == domain.CommonCategoryID {
			hasCommon = true
			break
		}
	}
	if !hasCommon {
		merged = append(merged, domain.CommonCategory())
	}

	remap := make(map[string]string)
	for _, nc := range newCats {
		dup := false
		for _, c := range merged {
			if c.ID == nc.ID {
				dup = true
				break
			}
			if c.Name == nc.Name {
				remap[nc.ID] = c.ID
				dup = true
				break
			}
		}
		if !dup {
			merged = append(merged, nc)
		}
	}

	imported := domain.CloneLinks(newLinks)
	for i := range imported {
		if id, ok := remap[imported[i].CategoryID]; ok {
			imported[i].CategoryID = id
		}
	}
	return Repair(append(domain.CloneLinks(links), imported...), merged)
}

// MergeAISort 应用 AI 建议，返回合并结果与新增分类名称
// 常用推荐中的链接不会被移动，非法分类 id 被忽略
func MergeAISort(links []domain.Link, cats []domain.Category, s domain.AISuggestion) ([]domain.Link, []domain.Category, []string) {
	merged := append([]domain.Category{}, cats...)
	known := make(map[string]struct{}, len(merged))
	for _, c := range merged {
		known[c.ID] = struct{}{}
	}

	var added []string
	for _, nc := range s.NewCategories {
		if nc.ID == "" {
			continue
		}
		if _, ok := known[nc.ID]; ok {
			continue
		}
		if nc.Icon == "" {
			nc.Icon = "Bookmark"
		}
		merged = append(merged, nc)
		known[nc.ID] = struct{}{}
		added = append(added, nc.Name)
	}

	byID := make(map[string]domain.AILinkSuggestion, len(s.Links))
	for _, sl := range s.Links {
		byID[sl.ID] = sl
	}

	out := domain.CloneLinks(links)
	for i := range out {
		if out[i].CategoryID == domain.CommonCategoryID {
			continue
		}
		sl, ok := byID[out[i].ID]
		if !ok {
			continue
		}
		if _, valid := known[sl.CategoryID]; valid && sl.CategoryID != "" {
			out[i].CategoryID = sl.CategoryID
		}
		if sl.Order != nil {
			v := *sl.Order
			out[i].Order = &v
		}
		if t := strings.TrimSpace(sl.Title); t != "" {
			out[i].Title = t
		}
		if ic := strings.TrimSpace(sl.Icon); ic != "" {
			out[i].Icon = ic
		}
	}
	return out, merged, added
}

// ChooseInboxCategory 选择新链接的分类，返回 id 与名称
// 顺序：指定的合法 id，名称含收集类关键字的分类，常用推荐，第一个分类，最后回退到常用推荐
func ChooseInboxCategory(cats []domain.Category, requested string) (string, string) {
	if requested != "" {
		for _, c := range cats {
			if c.ID == requested {
				return c.ID, c.Name
			}
		}
	}
	for _, c := range cats {
		name := strings.ToLower(c.Name)
		for _, kw := range inboxKeywords {
			if strings.Contains(name, kw) {
				return c.ID, c.Name
			}
		}
	}
	for _, c := range cats {
		if c.ID == domain.CommonCategoryID {
			return c.ID, c.Name
		}
	}
	if len(cats) > 0 {
		return cats[0].ID, cats[0].Name
	}
	return domain.CommonCategoryID, "默认"
}
