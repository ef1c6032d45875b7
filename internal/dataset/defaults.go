package dataset

import "github.com/haierkeys/cloudnav-sync-service/internal/domain"

// DefaultCategories 首次使用时的分类
func DefaultCategories() []domain.Category {
	return []domain.Category{
		domain.CommonCategory(),
		{ID: "dev", Name: "开发工具", Icon: "Code"},
		{ID: "design", Name: "设计资源", Icon: "Palette"},
		{ID: "read", Name: "阅读资讯", Icon: "BookOpen"},
		{ID: "ent", Name: "休闲娱乐", Icon: "Gamepad2"},
		{ID: "ai", Name: "人工智能", Icon: "Bot"},
	}
}

// DefaultLinks 首次使用时的示例链接
func DefaultLinks() []domain.Link {
	return []domain.Link{
		{ID: "1", Title: "GitHub", URL: "https://github.com", CategoryID: "dev", CreatedAt: 1, Description: "代码托管平台"},
		{ID: "2", Title: "React", URL: "https://react.dev", CategoryID: "dev", CreatedAt: 2, Description: "构建Web用户界面的库"},
		{ID: "3", Title: "Tailwind CSS", URL: "https://tailwindcss.com", CategoryID: "design", CreatedAt: 3, Description: "原子化CSS框架"},
		{ID: "4", Title: "ChatGPT", URL: "https://chat.openai.com", CategoryID: "ai", CreatedAt: 4, Description: "OpenAI聊天机器人"},
		{ID: "5", Title: "Gemini", URL: "https://gemini.google.com", CategoryID: "ai", CreatedAt: 5, Description: "Google DeepMind AI"},
	}
}

// DefaultDocument 本地缓存与云端均为空时使用
func DefaultDocument() *domain.Document {
	return &domain.Document{Version: 1, Links: DefaultLinks(), Categories: DefaultCategories()}
}
