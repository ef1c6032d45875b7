package model

// KV 键值表，文档与各类配置均以 JSON 字符串保存在 Value 中
// Revision 每次写入加 1，用于条件写入；ExpiresAt 为 0 表示永不过期
type KV struct {
	Name      string `gorm:"column:name;primaryKey;size:191" json:"name"`
	Value     string `gorm:"column:value;type:text" json:"value"`
	Revision  int64  `gorm:"column:revision;not null;default:0" json:"revision"`
	ExpiresAt int64  `gorm:"column:expires_at;index;not null;default:0" json:"expiresAt"`
	UpdatedAt int64  `gorm:"column:updated_at;autoUpdateTime:milli" json:"updatedAt"`
}
