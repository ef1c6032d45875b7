package code

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredMessages(t *testing.T) {
	t.Cleanup(func() { _ = SetGlobalDefaultLang(FALLBACK_LNG) })

	assert.Equal(t, "Success", Success.Msg())
	assert.Equal(t, "Success", sussCodes[200])
	assert.Equal(t, "Internal server error", codes[500])

	require.NoError(t, SetGlobalDefaultLang("zh_cn"))
	assert.Equal(t, "成功", Success.Msg())
	assert.Equal(t, "zh_cn", GetGlobalDefaultLang())

	require.Error(t, SetGlobalDefaultLang("fr"))
	assert.Equal(t, FALLBACK_LNG, GetGlobalDefaultLang())
	assert.Equal(t, "Success", Success.Error())
}

func TestLangGet(t *testing.T) {
	tests := []struct {
		name     string
		l        lang
		language string
		want     string
	}{
		{"english", lang{en: "a", zh_cn: "甲"}, "en", "a"},
		{"chinese", lang{en: "a", zh_cn: "甲"}, "zh_cn", "甲"},
		{"missing chinese", lang{en: "a"}, "zh_cn", "a"},
		{"unknown", lang{en: "a", zh_cn: "甲"}, "fr", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.l.Get(tt.language))
		})
	}
}

func TestCodeIs(t *testing.T) {
	c := ErrorServerInternal.Clone()
	assert.True(t, errors.Is(c, ErrorServerInternal))
	assert.False(t, errors.Is(c, ErrorInvalidParams))
	assert.Equal(t, http.StatusInternalServerError, c.StatusCode())
	assert.False(t, c.Status())
	assert.True(t, Success.Status())
}
