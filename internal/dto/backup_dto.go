package dto

import "github.com/haierkeys/cloudnav-sync-service/internal/domain"

// WebDAV 代理操作
const (
	WebDAVCheck    = "check"
	WebDAVUpload   = "upload"
	WebDAVDownload = "download"
)

// WebDAVConfig 用户自己的 WebDAV 服务
type WebDAVConfig struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// WebDAVRequest WebDAV 代理请求
type WebDAVRequest struct {
	Operation string                `json:"operation" binding:"required"`
	Config    *WebDAVConfig         `json:"config"`
	Payload   *domain.BackupPayload `json:"payload"`
}

// WebDAVResponse check/upload 的结果
type WebDAVResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// BackupRestoreRequest 从服务端备份恢复
type BackupRestoreRequest struct {
	BaseVersion *int64 `json:"baseVersion"`
}

// BackupSnapshotResponse 备份结果
type BackupSnapshotResponse struct {
	FileKey string `json:"fileKey"`
	Version int64  `json:"version"`
	Links   int    `json:"links"`
}
