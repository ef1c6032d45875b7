package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldIP 客户端 IP 字段
	FieldIP = "ip"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldKey 存储键字段
	FieldKey = "key"

	// FieldVersion 文档版本字段
	FieldVersion = "version"

	// FieldBaseVersion 客户端提交的基准版本
	FieldBaseVersion = "baseVersion"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldSize 大小字段
	FieldSize = "size"

	// FieldLinks 链接数量字段
	FieldLinks = "links"

	// FieldCategories 分类数量字段
	FieldCategories = "categories"

	// FieldStorage 存储类型字段
	FieldStorage = "storage"

	// FieldFileKey 文件键字段
	FieldFileKey = "fileKey"

	// FieldTask 后台任务名称
	FieldTask = "task"
)
