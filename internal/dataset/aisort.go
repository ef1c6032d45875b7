package dataset

import (
	"regexp"
	"strings"
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// NormalizeAIURL 补全为 .../v1/chat/completions，非 http/https 返回 false
func NormalizeAIURL(raw string) (string, bool) {
	u := strings.TrimSpace(raw)
	if !strings.HasSuffix(u, "/chat/completions") {
		u = strings.TrimSuffix(u, "/")
		if !strings.HasSuffix(u, "/v1") {
			u += "/v1"
		}
		u += "/chat/completions"
	}
	if !IsHTTPURL(u) {
		return "", false
	}
	return u, true
}

// ExtractJSON 去掉模型回复中的 markdown 代码块
func ExtractJSON(content string) string {
	if m := codeFence.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}
