package code

import "net/http"

var (
	Success = NewSuss(200, lang{en: "Success", zh_cn: "成功"})

	SuccessLogin    = NewSuss(201, lang{en: "Login successful", zh_cn: "登录成功"})
	SuccessSaved    = NewSuss(202, lang{en: "Saved", zh_cn: "已保存"})
	SuccessNoAuth   = NewSuss(203, lang{en: "No password required", zh_cn: "无需密码"})
	SuccessLinkAdd  = NewSuss(204, lang{en: "Link added", zh_cn: "链接已添加"})
	SuccessBackedUp = NewSuss(205, lang{en: "Backup completed", zh_cn: "备份完成"})
	SuccessRestored = NewSuss(206, lang{en: "Backup restored", zh_cn: "备份已恢复"})

	ErrorServerInternal = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"}, http.StatusInternalServerError)
	ErrorNotFoundAPI    = NewError(404, lang{en: "API not found", zh_cn: "接口不存在"}, http.StatusNotFound)
	ErrorInvalidParams  = NewError(400, lang{en: "Invalid params", zh_cn: "参数错误"}, http.StatusBadRequest)
	ErrorTooManyRequest = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"}, http.StatusTooManyRequests)

	// 访问控制
	ErrorUnauthorized    = NewError(401001, lang{en: "Unauthorized", zh_cn: "未授权"}, http.StatusUnauthorized)
	ErrorPasswordExpired = NewError(401002, lang{en: "password expired", zh_cn: "密码已过期"}, http.StatusUnauthorized)
	ErrorLoginRateLimit  = NewError(429001, lang{en: "Too many login attempts, please try again later", zh_cn: "登录尝试次数过多，请稍后再试"}, http.StatusTooManyRequests)
	ErrorPasswordUnset   = NewError(401003, lang{en: "Password not configured on server", zh_cn: "服务端未配置密码"}, http.StatusUnauthorized)

	// 文档
	ErrorVersionConflict   = NewError(409001, lang{en: "Version conflict, data was modified elsewhere", zh_cn: "版本冲突，数据已在其他地方被修改"}, http.StatusConflict)
	ErrorBodyTooLarge      = NewError(413001, lang{en: "Request body too large", zh_cn: "请求体过大"}, http.StatusRequestEntityTooLarge)
	ErrorTooManyLinks      = NewError(400101, lang{en: "Too many links", zh_cn: "链接数量超出限制"}, http.StatusBadRequest)
	ErrorTooManyCategories = NewError(400102, lang{en: "Too many categories", zh_cn: "分类数量超出限制"}, http.StatusBadRequest)
	ErrorInvalidDocument   = NewError(400103, lang{en: "Invalid data format", zh_cn: "数据格式无效"}, http.StatusBadRequest)
	ErrorReservedCategory  = NewError(400104, lang{en: "The common category cannot be deleted", zh_cn: "常用推荐分类不能被删除"}, http.StatusBadRequest)
	ErrorDocumentWrite     = NewError(500101, lang{en: "Failed to save data", zh_cn: "保存数据失败"}, http.StatusInternalServerError)
	ErrorDocumentRead      = NewError(500102, lang{en: "Failed to read data", zh_cn: "读取数据失败"}, http.StatusInternalServerError)

	// 配置
	ErrorConfigUnknown  = NewError(400201, lang{en: "Unknown config type", zh_cn: "未知的配置类型"}, http.StatusBadRequest)
	ErrorConfigInvalid  = NewError(400202, lang{en: "Invalid config data", zh_cn: "配置数据无效"}, http.StatusBadRequest)
	ErrorInvalidDomain  = NewError(400203, lang{en: "Invalid domain format", zh_cn: "域名格式无效"}, http.StatusBadRequest)
	ErrorFaviconMissing = NewError(400204, lang{en: "Domain and icon are required", zh_cn: "域名和图标不能为空"}, http.StatusBadRequest)
	ErrorConfigWrite    = NewError(500201, lang{en: "Failed to save config", zh_cn: "保存配置失败"}, http.StatusInternalServerError)

	// 链接
	ErrorLinkTitleURL = NewError(400301, lang{en: "Missing title or url", zh_cn: "缺少标题或网址"}, http.StatusBadRequest)
	ErrorLinkURL      = NewError(400302, lang{en: "Invalid URL format", zh_cn: "网址格式无效"}, http.StatusBadRequest)
	ErrorLinkTooLong  = NewError(400303, lang{en: "Title or URL too long", zh_cn: "标题或网址过长"}, http.StatusBadRequest)

	// AI
	ErrorAIConfigMissing = NewError(400401, lang{en: "AI service is not configured", zh_cn: "AI 服务未配置"}, http.StatusBadRequest)
	ErrorAIURLInvalid    = NewError(400402, lang{en: "Invalid AI API URL", zh_cn: "AI 接口地址无效"}, http.StatusBadRequest)
	ErrorAIUpstream      = NewError(502401, lang{en: "AI service error", zh_cn: "AI 服务调用失败"}, http.StatusBadGateway)

	// 备份
	ErrorBackupConfigMissing = NewError(400501, lang{en: "Missing WebDAV config", zh_cn: "缺少 WebDAV 配置"}, http.StatusBadRequest)
	ErrorBackupOperation     = NewError(400502, lang{en: "Invalid operation", zh_cn: "无效的操作"}, http.StatusBadRequest)
	ErrorBackupNotFound      = NewError(404501, lang{en: "Backup file not found", zh_cn: "备份文件不存在"}, http.StatusNotFound)
	ErrorBackupUpstream      = NewError(502501, lang{en: "Backup storage error", zh_cn: "备份存储访问失败"}, http.StatusBadGateway)
	ErrorBackupDisabled      = NewError(400503, lang{en: "Server backup is not enabled", zh_cn: "服务端备份未启用"}, http.StatusBadRequest)

	// 导入
	ErrorImportFile  = NewError(400601, lang{en: "Bookmark file is required", zh_cn: "请上传书签文件"}, http.StatusBadRequest)
	ErrorImportParse = NewError(400602, lang{en: "Failed to parse bookmark file", zh_cn: "书签文件解析失败"}, http.StatusBadRequest)
)
