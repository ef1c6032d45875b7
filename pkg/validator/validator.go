// Package validator 初始化 gin 的请求校验器与错误信息翻译
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

var (
	once sync.Once
	uni  *ut.UniversalTranslator
	err  error
)

// Setup 使用 json 标签作为字段名，并注册中英文翻译
// 多次调用返回同一个翻译器
func Setup() (*ut.UniversalTranslator, error) {
	once.Do(func() {
		uni = ut.New(en.New(), en.New(), zh.New())

		validate, ok := binding.Validator.Engine().(*validatorV10.Validate)
		if !ok {
			return
		}

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		zhTran, _ := uni.GetTranslator("zh")
		enTran, _ := uni.GetTranslator("en")

		if err = zh_translations.RegisterDefaultTranslations(validate, zhTran); err != nil {
			return
		}
		err = en_translations.RegisterDefaultTranslations(validate, enTran)
	})
	return uni, err
}
