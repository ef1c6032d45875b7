// Package dataset 书签文档的纯数据逻辑：清洗、修复、排序与合并
// 服务端与同步客户端共用，不依赖任何存储或网络
package dataset

import (
	"net/url"
	"strings"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
)

// 字段长度上限
const (
	MaxFieldLength       = 10000
	MaxIDLength          = 100
	MaxTitleLength       = 500
	MaxURLLength         = 2048
	MaxDescriptionLength = 1000
	MaxNameLength        = 200
	MaxAPIKeyLength      = 500
)

// 文档数量上限，服务端可通过 limits 配置覆盖
const (
	MaxLinks      = 10000
	MaxCategories = 500
)

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// SanitizeString 转义 < > " ' 后截断到 10000 个字符
func SanitizeString(s string) string {
	return Truncate(htmlEscaper.Replace(s), MaxFieldLength)
}

// Truncate 按字符截断
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// IsValidURL 允许省略协议，省略时按 https 处理，只接受 http/https
func IsValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsHTTPURL 必须显式以 http/https 开头
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// EnsureProtocol 没有 http:// 或 https:// 前缀时补上 https://
func EnsureProtocol(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// SanitizeLink 清洗客户端提交的链接，非法类型按缺省值处理
func SanitizeLink(raw map[string]any, now time.Time) domain.Link {
	l := domain.Link{
		ID:         Truncate(SanitizeString(stringField(raw, "id")), MaxIDLength),
		Title:      Truncate(SanitizeString(stringField(raw, "title")), MaxTitleLength),
		URL:        Truncate(stringField(raw, "url"), MaxURLLength),
		Icon:       Truncate(stringField(raw, "icon"), MaxURLLength),
		CategoryID: Truncate(SanitizeString(stringField(raw, "categoryId")), MaxIDLength),
		CreatedAt:  now.UnixMilli(),
	}
	if d, ok := raw["description"].(string); ok {
		l.Description = Truncate(SanitizeString(d), MaxDescriptionLength)
	}
	if v, ok := numberField(raw, "createdAt"); ok {
		l.CreatedAt = v
	}
	if v, ok := numberField(raw, "order"); ok {
		l.Order = &v
	}
	if b, ok := raw["pinned"].(bool); ok {
		l.Pinned = b
	}
	if v, ok := numberField(raw, "pinnedOrder"); ok {
		l.PinnedOrder = &v
	}
	return l
}

// SanitizeCategory 清洗分类，密码原样保存
func SanitizeCategory(raw map[string]any) domain.Category {
	return domain.Category{
		ID:       Truncate(SanitizeString(stringField(raw, "id")), MaxIDLength),
		Name:     Truncate(SanitizeString(stringField(raw, "name")), MaxNameLength),
		Icon:     Truncate(SanitizeString(stringField(raw, "icon")), MaxNameLength),
		Password: Truncate(stringField(raw, "password"), MaxNameLength),
	}
}

// SanitizeLinks 非对象元素被丢弃
func SanitizeLinks(raw []any, now time.Time) []domain.Link {
	out := make([]domain.Link, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, SanitizeLink(m, now))
		}
	}
	return out
}

func SanitizeCategories(raw []any) []domain.Category {
	out := make([]domain.Category, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, SanitizeCategory(m))
		}
	}
	return out
}

// SanitizeSiteConfig 只保留类型正确的字段，faviconUrl 必须是合法地址
func SanitizeSiteConfig(raw map[string]any) domain.SiteConfig {
	var c domain.SiteConfig
	if s, ok := raw["websiteTitle"].(string); ok {
		c.WebsiteTitle = Truncate(SanitizeString(s), MaxNameLength)
	}
	if s, ok := raw["navigationName"].(string); ok {
		c.NavigationName = Truncate(SanitizeString(s), MaxNameLength)
	}
	if s, ok := raw["faviconUrl"].(string); ok && IsValidURL(s) {
		c.FaviconURL = Truncate(s, MaxURLLength)
	}
	if b, ok := raw["sakuraEnabled"].(bool); ok {
		c.SakuraEnabled = &b
	}
	return c
}

// SanitizeAIConfig apiUrl 与 apiKey 原样截断，model 需要转义
func SanitizeAIConfig(raw map[string]any) domain.AIConfig {
	return domain.AIConfig{
		APIURL: Truncate(stringField(raw, "apiUrl"), MaxURLLength),
		APIKey: Truncate(stringField(raw, "apiKey"), MaxAPIKeyLength),
		Model:  Truncate(SanitizeString(stringField(raw, "model")), MaxNameLength),
	}
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

// numberField JSON 数字解码为 float64，小数部分被截断
func numberField(raw map[string]any, key string) (int64, bool) {
	switch v := raw[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
