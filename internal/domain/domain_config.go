package domain

// ExpiryUnit 凭证有效期单位
type ExpiryUnit string

const (
	ExpiryDay       ExpiryUnit = "day"
	ExpiryWeek      ExpiryUnit = "week"
	ExpiryMonth     ExpiryUnit = "month"
	ExpiryYear      ExpiryUnit = "year"
	ExpiryPermanent ExpiryUnit = "permanent"
)

// ExpiryPolicy 凭证有效期策略，Value 小于 1 时按 1 处理
type ExpiryPolicy struct {
	Value int        `json:"value"`
	Unit  ExpiryUnit `json:"unit"`
}

// WebsiteConfig 站点级访问策略
type WebsiteConfig struct {
	PasswordExpiry ExpiryPolicy `json:"passwordExpiry"`
}

// DefaultWebsiteConfig 默认一周过期
func DefaultWebsiteConfig() WebsiteConfig {
	return WebsiteConfig{PasswordExpiry: ExpiryPolicy{Value: 1, Unit: ExpiryWeek}}
}

// SiteConfig 页面展示配置
type SiteConfig struct {
	WebsiteTitle   string `json:"websiteTitle,omitempty"`
	NavigationName string `json:"navigationName,omitempty"`
	FaviconURL     string `json:"faviconUrl,omitempty"`
	SakuraEnabled  *bool  `json:"sakuraEnabled,omitempty"`
}

// AIConfig OpenAI 兼容接口配置
type AIConfig struct {
	APIURL string `json:"apiUrl,omitempty"`
	APIKey string `json:"apiKey,omitempty"`
	Model  string `json:"model,omitempty"`
}

// Ready 三项均已配置
func (c AIConfig) Ready() bool {
	return c.APIURL != "" && c.APIKey != "" && c.Model != ""
}

// Favicon 站点图标缓存，未命中时 Icon 为 null
type Favicon struct {
	Icon   *string `json:"icon"`
	Cached bool    `json:"cached"`
}

// AuthStatus checkAuth 的返回结果
type AuthStatus struct {
	HasPassword  bool `json:"hasPassword"`
	RequiresAuth bool `json:"requiresAuth"`
	Expired      bool `json:"expired"`
}
