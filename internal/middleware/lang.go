package middleware

import (
	"strings"

	"github.com/haierkeys/cloudnav-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 按 ?lang= 或 lang 请求头选择提示语言，其次参考 Accept-Language
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		} else if s = c.GetHeader("Accept-Language"); strings.HasPrefix(strings.ToLower(s), "zh") {
			lang = "zh_cn"
		}

		lang = strings.ToLower(strings.ReplaceAll(lang, "-", "_"))

		locale := lang
		if strings.HasPrefix(locale, "zh") {
			locale = "zh"
		}
		trans, found := uni.GetTranslator(locale)
		if !found {
			trans, _ = uni.GetTranslator("en")
		}
		c.Set("trans", trans)

		_ = code.SetGlobalDefaultLang(lang)

		c.Next()
	}
}
