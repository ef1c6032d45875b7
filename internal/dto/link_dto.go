package dto

import "github.com/haierkeys/cloudnav-sync-service/internal/domain"

// LinkAddRequest 快速添加链接（书签脚本/浏览器扩展使用）
// title 与 url 由服务层校验
type LinkAddRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
}

// LinkAddResponse 添加结果
type LinkAddResponse struct {
	Success      bool        `json:"success"`
	Link         domain.Link `json:"link"`
	CategoryName string      `json:"categoryName"`
	Version      int64       `json:"version"`
}
