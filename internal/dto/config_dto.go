package dto

// FaviconGetRequest 读取站点图标缓存
type FaviconGetRequest struct {
	Domain string `json:"domain" form:"domain" binding:"required"`
}

// ConfigSaveRequest 配置写入请求，config 为任意 JSON 对象
// favicon 使用 domain/icon 字段
type ConfigSaveRequest struct {
	Config map[string]any `json:"config"`
	Domain string         `json:"domain"`
	Icon   string         `json:"icon"`
}

// StorageActionRequest 兼容 POST /api/storage 的 authOnly/saveConfig 两种旧格式
type StorageActionRequest struct {
	AuthOnly   bool   `json:"authOnly"`
	SaveConfig string `json:"saveConfig"`
	ConfigSaveRequest
}

// VerifyResponse 凭证校验结果
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// SuccessResponse 通用成功响应
type SuccessResponse struct {
	Success bool `json:"success"`
}
