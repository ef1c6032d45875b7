package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;&quot;x&quot; &#x27;y&#x27;", SanitizeString(`<b>"x" 'y'`))
	assert.Len(t, SanitizeString(strings.Repeat("a", 20000)), MaxFieldLength)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "常用", Truncate("常用推荐", 2))
	assert.Equal(t, "ab", Truncate("ab", 5))
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/a?b=c", true},
		{"example.com", true},
		{"", false},
		{"http://", false},
		{"exa mple.com", false},
		{"javascript:alert(1)", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidURL(tt.in))
		})
	}
}

func TestEnsureProtocol(t *testing.T) {
	assert.Equal(t, "https://a.com", EnsureProtocol("a.com"))
	assert.Equal(t, "http://a.com", EnsureProtocol("http://a.com"))
	assert.Equal(t, "", EnsureProtocol(""))
}

func TestSanitizeLink(t *testing.T) {
	now := time.UnixMilli(42)
	raw := map[string]any{
		"id":          "1",
		"title":       "<script>",
		"url":         "https://a.com/?q=<x>",
		"categoryId":  "dev",
		"createdAt":   "not a number",
		"order":       float64(3),
		"pinned":      "yes",
		"description": 12,
	}

	l := SanitizeLink(raw, now)

	assert.Equal(t, "&lt;script&gt;", l.Title)
	assert.Equal(t, "https://a.com/?q=<x>", l.URL)
	assert.Equal(t, int64(42), l.CreatedAt)
	assert.Equal(t, int64(3), *l.Order)
	assert.False(t, l.Pinned)
	assert.Nil(t, l.PinnedOrder)
	assert.Empty(t, l.Description)
}

func TestSanitizeSiteConfig(t *testing.T) {
	c := SanitizeSiteConfig(map[string]any{
		"websiteTitle":  "<My>",
		"faviconUrl":    "not a url",
		"sakuraEnabled": true,
	})
	assert.Equal(t, "&lt;My&gt;", c.WebsiteTitle)
	assert.Empty(t, c.FaviconURL)
	assert.True(t, *c.SakuraEnabled)
}

func TestNormalizeAIURL(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://api.openai.com", "https://api.openai.com/v1/chat/completions", true},
		{"https://api.openai.com/", "https://api.openai.com/v1/chat/completions", true},
		{"https://x.com/v1", "https://x.com/v1/chat/completions", true},
		{"https://x.com/v1/chat/completions", "https://x.com/v1/chat/completions", true},
		{"ftp://x.com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeAIURL(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"links":[]}`, ExtractJSON("```json\n{\"links\":[]}\n```"))
	assert.Equal(t, `{"a":1}`, ExtractJSON("  {\"a\":1} "))
}
