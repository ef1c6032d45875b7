package code

import (
	"errors"
	"sync/atomic"
)

// lang stores English and Chinese text
// lang 类型，用来存储英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

const FALLBACK_LNG = "en"

var supportedLanguages = []string{"en", "zh_cn"}

// lng 在包级变量初始化阶段就会被读取，为空时按 FALLBACK_LNG 处理
var lng atomic.Value

// GetMessage returns the message in the global language, falling back to English
// GetMessage 根据全局语言返回消息，缺失时回退到英文
func (l lang) GetMessage() string {
	return l.Get(GetGlobalDefaultLang())
}

// Get 返回指定语言的消息
func (l lang) Get(language string) string {
	if language == "zh_cn" && l.zh_cn != "" {
		return l.zh_cn
	}
	return l.en
}

// GetSupportedLanguages 返回支持的语言
func GetSupportedLanguages() []string {
	return supportedLanguages
}

// SetGlobalDefaultLang sets the global default language
// 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	for _, l := range supportedLanguages {
		if l == language {
			lng.Store(language)
			return nil
		}
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang 获取全局默认语言
func GetGlobalDefaultLang() string {
	if v, ok := lng.Load().(string); ok {
		return v
	}
	return FALLBACK_LNG
}
