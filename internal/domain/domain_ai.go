package domain

// AISuggestion AI 分类建议
type AISuggestion struct {
	Links         []AILinkSuggestion `json:"links"`
	NewCategories []Category         `json:"newCategories,omitempty"`
}

// AILinkSuggestion 单个链接的建议，空字段表示保持原值
type AILinkSuggestion struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId,omitempty"`
	Order      *int64 `json:"order,omitempty"`
	Title      string `json:"title,omitempty"`
	Icon       string `json:"icon,omitempty"`
}

// BackupPayload 备份文件内容
type BackupPayload struct {
	Links        []Link     `json:"links"`
	Categories   []Category `json:"categories"`
	SearchConfig RawJSON    `json:"searchConfig,omitempty"`
	Version      int64      `json:"version,omitempty"`
	ExportedAt   int64      `json:"exportedAt,omitempty"`
}

// ImportResult 书签导入解析结果
type ImportResult struct {
	Links      []Link     `json:"links"`
	Categories []Category `json:"categories"`
}
