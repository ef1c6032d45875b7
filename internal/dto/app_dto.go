// Package dto 请求参数与响应结构体
package dto

// ServerVersionDTO /api/version 响应
type ServerVersionDTO struct {
	Name         string      `json:"name"`
	Version      string      `json:"version"`
	GitTag       string      `json:"gitTag"`
	BuildTime    string      `json:"buildTime"`
	StoreBackend string      `json:"storeBackend"` // database|redis
	Release      *ReleaseDTO `json:"release,omitempty"`
}

// ReleaseDTO 比当前版本更新的发布
type ReleaseDTO struct {
	Latest string `json:"latest"`
	Link   string `json:"link"`
}
