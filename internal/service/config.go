// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig 服务层配置
type ServiceConfig struct {
	Security SecurityServiceConfig
	Limits   LimitsServiceConfig
	AI       AIServiceConfig
	Backup   BackupServiceConfig
}

// SecurityServiceConfig 访问控制配置
type SecurityServiceConfig struct {
	Password         string        // 部署级访问密码，空表示开放模式
	LoginMaxAttempts int           // 每个 IP 在窗口内的登录尝试上限
	LoginWindow      time.Duration // 登录限流窗口
}

// LimitsServiceConfig 文档与请求体限制
type LimitsServiceConfig struct {
	MaxLinks      int
	MaxCategories int
	FaviconTTL    time.Duration
}

// AIServiceConfig AI 整理配置
type AIServiceConfig struct {
	HTTPTimeout   time.Duration
	MaxLinks      int
	MaxCategories int
}

// BackupServiceConfig 服务端备份配置
type BackupServiceConfig struct {
	Enabled  bool
	Cron     string
	FileKey  string // 备份文件名，默认 cloudnav_backup.json
	KeepCopy bool   // 是否额外保存带时间戳的副本
}

// DefaultServiceConfig 默认配置
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Security: SecurityServiceConfig{LoginMaxAttempts: 10, LoginWindow: 15 * time.Minute},
		Limits:   LimitsServiceConfig{MaxLinks: 10000, MaxCategories: 500, FaviconTTL: 30 * 24 * time.Hour},
		AI:       AIServiceConfig{HTTPTimeout: 60 * time.Second, MaxLinks: 5000, MaxCategories: 200},
		Backup:   BackupServiceConfig{Cron: "0 3 * * *", FileKey: BackupFileKey, KeepCopy: true},
	}
}

// BackupFileKey 备份文件名
const BackupFileKey = "cloudnav_backup.json"
