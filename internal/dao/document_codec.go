package dao

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
)

// storedDocument 存储格式，字段全部延迟解析以兼容旧数据
type storedDocument struct {
	Version    json.RawMessage `json:"version"`
	UpdatedAt  json.RawMessage `json:"updatedAt"`
	Links      json.RawMessage `json:"links"`
	Categories json.RawMessage `json:"categories"`
}

// decodeDocument 宽松解析：
// 缺失或无法解析时返回版本 1 的空文档，旧格式没有 version 时按 1 处理
func decodeDocument(raw string, ok bool, now time.Time) *domain.Document {
	doc := &domain.Document{
		Version:    1,
		UpdatedAt:  now.UnixMilli(),
		Links:      []domain.Link{},
		Categories: []domain.Category{},
	}
	if !ok || raw == "" {
		return doc
	}

	var s storedDocument
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return doc
	}

	if v, ok := decodeInt(s.Version); ok && v > 0 {
		doc.Version = v
	}
	if v, ok := decodeInt(s.UpdatedAt); ok && v > 0 {
		doc.UpdatedAt = v
	}

	if len(s.Links) > 0 {
		var links []domain.Link
		if err := json.Unmarshal(s.Links, &links); err == nil && links != nil {
			doc.Links = links
		} else {
			var loose []any
			if err := json.Unmarshal(s.Links, &loose); err == nil {
				doc.Links = dataset.SanitizeLinks(loose, now)
			}
		}
	}
	if len(s.Categories) > 0 {
		var cats []domain.Category
		if err := json.Unmarshal(s.Categories, &cats); err == nil && cats != nil {
			doc.Categories = cats
		} else {
			var loose []any
			if err := json.Unmarshal(s.Categories, &loose); err == nil {
				doc.Categories = dataset.SanitizeCategories(loose)
			}
		}
	}
	return doc
}

// decodeInt 兼容数字与数字字符串
func decodeInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseInt64(s)
	}
	return 0, false
}

func parseInt64(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func encodeDocument(doc *domain.Document) (string, error) {
	if doc.Links == nil {
		doc.Links = []domain.Link{}
	}
	if doc.Categories == nil {
		doc.Categories = []domain.Category{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
