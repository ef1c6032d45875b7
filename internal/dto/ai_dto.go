package dto

// AISortRequest AI 整理请求，links/categories 为客户端当前数据
type AISortRequest struct {
	Links      []map[string]any `json:"links"`
	Categories []map[string]any `json:"categories"`
}
