// Package domain 定义领域模型和接口
package domain

// 常用推荐分类，始终存在且位于第一位，不可删除
const (
	CommonCategoryID   = "common"
	CommonCategoryName = "常用推荐"
	CommonCategoryIcon = "Star"
)

// 文档与配置在 KV 中的存储键
const (
	KeyDocument      = "app_data"
	KeySearchConfig  = "search_config"
	KeyWebsiteConfig = "website_config"
	KeySiteConfig    = "site_config"
	KeyAIConfig      = "ai_config"
	KeyLastAuthTime  = "last_auth_time"
	KeyFaviconPrefix = "favicon:"
)

// Link 书签
type Link struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"categoryId"`
	CreatedAt   int64  `json:"createdAt"`
	Order       *int64 `json:"order,omitempty"`
	Pinned      bool   `json:"pinned"`
	PinnedOrder *int64 `json:"pinnedOrder,omitempty"`
}

// Category 分类，Password 非空表示需要在会话内解锁后才能查看
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Password string `json:"password,omitempty"`
}

// CommonCategory 返回默认的常用推荐分类
func CommonCategory() Category {
	return Category{ID: CommonCategoryID, Name: CommonCategoryName, Icon: CommonCategoryIcon}
}

// Document 全部书签与分类，作为一个整体进行版本控制
// 每次成功写入 Version 加 1
type Document struct {
	Version    int64      `json:"version"`
	UpdatedAt  int64      `json:"updatedAt"`
	Links      []Link     `json:"links"`
	Categories []Category `json:"categories"`
}

// Clone 深拷贝，避免调用方共享底层切片
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Version: d.Version, UpdatedAt: d.UpdatedAt}
	out.Links = CloneLinks(d.Links)
	out.Categories = append([]Category{}, d.Categories...)
	return out
}

// CloneLinks 深拷贝链接列表，包括 Order/PinnedOrder 指针
func CloneLinks(links []Link) []Link {
	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = l
		if l.Order != nil {
			v := *l.Order
			out[i].Order = &v
		}
		if l.PinnedOrder != nil {
			v := *l.PinnedOrder
			out[i].PinnedOrder = &v
		}
	}
	return out
}

// WriteResult 写入成功后返回给客户端的结果
type WriteResult struct {
	Version   int64 `json:"version"`
	UpdatedAt int64 `json:"updatedAt"`
}
