package dto

// DocumentSaveRequest 文档写入请求
// 同时兼容 {links,categories} 与 {data:{links,categories}} 两种格式
// 字段类型保持宽松，由服务层清洗
type DocumentSaveRequest struct {
	BaseVersion any           `json:"baseVersion"`
	Links       any           `json:"links"`
	Categories  any           `json:"categories"`
	Data        *DocumentData `json:"data"`
}

// DocumentData 旧版写入格式
type DocumentData struct {
	Links      any `json:"links"`
	Categories any `json:"categories"`
}

// DocumentSaveResponse 写入成功响应
type DocumentSaveResponse struct {
	Success   bool  `json:"success"`
	Version   int64 `json:"version"`
	UpdatedAt int64 `json:"updatedAt"`
}

// LoginRequest 登录请求，凭证通过 x-auth-password 头传递
type LoginRequest struct {
	AuthOnly bool `json:"authOnly"`
}

// ConflictData 冲突时返回的数据
type ConflictData struct {
	CurrentVersion int64 `json:"currentVersion"`
}
