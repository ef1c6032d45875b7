package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// AI 输入字段上限，与文档清洗规则不同，描述只保留 500 字符
const aiDescriptionLength = 500

const aiSystemPrompt = `你是一个书签整理助手。用户会给你一组书签链接（包含 title、url、description、icon、categoryId）和现有分类列表。

你的任务：
1. 分析每个书签的 title、url、description，判断它最适合归入哪个分类
2. categoryId 为 "common"（常用推荐）的书签不要移动，保持原样
3. 如果现有分类不足以覆盖某些书签，你可以创建新分类
4. 对同一分类下的书签按相关性进行排序
5. **整理书签名称**：如果 title 不够简洁或不够清晰，优化为更简短、直观的名称（例如 "GitHub: Let's build from here · GitHub" → "GitHub"，"Google 翻译" 保持不变）
6. **补充网站图标**：如果书签的 icon 字段为空或缺失，根据 url 推断合适的 favicon 地址，格式为 https://域名/favicon.ico 或使用 Google favicon 服务 https://www.google.com/s2/favicons?domain=域名&sz=64。如果 icon 已有值则保持不变。

返回格式为 JSON：
{
  "links": [
    { "id": "原始id", "categoryId": "目标分类id", "order": 排序序号, "title": "整理后的名称", "icon": "图标URL" }
  ],
  "newCategories": [
    { "id": "新分类id", "name": "分类名称", "icon": "Lucide图标名" }
  ]
}

可用的 Lucide 图标名举例（仅用于分类图标）：Star, Code, Palette, BookOpen, Gamepad2, Bot, Globe, Music, Video, ShoppingCart, Briefcase, GraduationCap, Heart, Camera, Cpu, Database, Shield, Zap, Cloud, Terminal, Smartphone, Mail, Map, Bookmark, FileText, Image, Layers, Users, Headphones, Tv, Wallet, Coffee, Plane, Building, Wrench, Lightbulb, Gift, Flag

注意：
- 只返回纯 JSON，不要任何额外解释
- 每个链接必须出现且只出现一次
- id 为 "common" 的分类不要删除，是保留分类
- 新分类的 id 用小写英文，简短有意义（如 "music", "video", "finance"）
- order 从 0 开始递增，同分类内连续编号
- links 中每项必须包含 title 和 icon 字段
- icon 是网站 favicon 的完整 URL（不是 Lucide 图标名）`

// AIUpstreamError 上游接口失败，Status 为上游 HTTP 状态码，0 表示内容无效
type AIUpstreamError struct {
	Status int
	Reason string
}

func (e *AIUpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("ai upstream status %d", e.Status)
	}
	return "ai upstream: " + e.Reason
}

func (e *AIUpstreamError) Is(target error) bool {
	return target == domain.ErrAIUpstream
}

// AISortService 调用 OpenAI 兼容接口获取整理建议
type AISortService interface {
	Sort(ctx context.Context, links, categories []map[string]any) (*domain.AISuggestion, error)
}

type aiSortService struct {
	config ConfigService
	client *http.Client
	cfg    AIServiceConfig
	logger *zap.Logger
}

// NewAISortService 创建 AISortService 实例，client 为 nil 时按超时配置创建
func NewAISortService(config ConfigService, cfg AIServiceConfig, client *http.Client, logger *zap.Logger) AISortService {
	if client == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &aiSortService{config: config, client: client, cfg: cfg, logger: logger}
}

type aiLinkInput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	CategoryID  string `json:"categoryId"`
}

type aiCategoryInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type aiLinkWire struct {
	ID         string   `json:"id"`
	CategoryID string   `json:"categoryId"`
	Order      *float64 `json:"order"`
	Title      string   `json:"title"`
	Icon       string   `json:"icon"`
}

func (s *aiSortService) Sort(ctx context.Context, links, categories []map[string]any) (*domain.AISuggestion, error) {
	if links == nil || categories == nil {
		return nil, &ParamError{Field: "links", Reason: "links and categories are required"}
	}
	if s.cfg.MaxLinks > 0 && len(links) > s.cfg.MaxLinks {
		return nil, domain.ErrTooManyLinks
	}
	if s.cfg.MaxCategories > 0 && len(categories) > s.cfg.MaxCategories {
		return nil, domain.ErrTooManyCategories
	}

	ac, err := s.config.LoadAI(ctx)
	if err != nil {
		return nil, err
	}
	if !ac.Ready() {
		return nil, domain.ErrAIConfigMissing
	}
	endpoint, ok := dataset.NormalizeAIURL(ac.APIURL)
	if !ok {
		return nil, &ConfigInvalidError{Err: fmt.Errorf("ai api url must start with http:// or https://")}
	}

	body, err := json.Marshal(chatRequest{
		Model: ac.Model,
		Messages: []chatMessage{
			{Role: "system", Content: aiSystemPrompt},
			{Role: "user", Content: buildUserPrompt(links, categories)},
		},
		Temperature: 0.3,
		MaxTokens:   4096,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ac.APIKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("ai request failed", zap.Error(err))
		return nil, &AIUpstreamError{Reason: "request failed"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 上游错误内容可能包含密钥等敏感信息，只记录状态码
		_, _ = io.Copy(io.Discard, resp.Body)
		s.logger.Warn("ai upstream error", zap.Int("status", resp.StatusCode), zap.Duration(logger.FieldDuration, time.Since(start)))
		return nil, &AIUpstreamError{Status: resp.StatusCode}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &AIUpstreamError{Reason: "invalid response"}
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return nil, &AIUpstreamError{Reason: "empty content"}
	}

	return parseSuggestion(cr.Choices[0].Message.Content)
}

// parseSuggestion 模型返回的 order 可能是小数，按整数截断
func parseSuggestion(content string) (*domain.AISuggestion, error) {
	var w struct {
		Links         json.RawMessage `json:"links"`
		NewCategories json.RawMessage `json:"newCategories"`
	}
	if err := json.Unmarshal([]byte(dataset.ExtractJSON(content)), &w); err != nil {
		return nil, &AIUpstreamError{Reason: "invalid json"}
	}
	if len(w.Links) == 0 || w.Links[0] != '[' {
		return nil, &AIUpstreamError{Reason: "links missing"}
	}

	var links []aiLinkWire
	if err := json.Unmarshal(w.Links, &links); err != nil {
		return nil, &AIUpstreamError{Reason: "invalid structure"}
	}

	out := &domain.AISuggestion{Links: make([]domain.AILinkSuggestion, 0, len(links))}
	if len(w.NewCategories) > 0 {
		_ = json.Unmarshal(w.NewCategories, &out.NewCategories)
	}
	for _, l := range links {
		s := domain.AILinkSuggestion{ID: l.ID, CategoryID: l.CategoryID, Title: l.Title, Icon: l.Icon}
		if l.Order != nil {
			o := int64(*l.Order)
			s.Order = &o
		}
		out.Links = append(out.Links, s)
	}
	return out, nil
}

func buildUserPrompt(links, categories []map[string]any) string {
	ls := make([]aiLinkInput, 0, len(links))
	for _, l := range links {
		ls = append(ls, aiLinkInput{
			ID:          dataset.Truncate(str(l, "id"), dataset.MaxIDLength),
			Title:       dataset.Truncate(str(l, "title"), dataset.MaxTitleLength),
			URL:         dataset.Truncate(str(l, "url"), dataset.MaxURLLength),
			Description: dataset.Truncate(str(l, "description"), aiDescriptionLength),
			Icon:        dataset.Truncate(str(l, "icon"), dataset.MaxURLLength),
			CategoryID:  dataset.Truncate(str(l, "categoryId"), dataset.MaxIDLength),
		})
	}
	cs := make([]aiCategoryInput, 0, len(categories))
	for _, c := range categories {
		cs = append(cs, aiCategoryInput{
			ID:   dataset.Truncate(str(c, "id"), dataset.MaxIDLength),
			Name: dataset.Truncate(str(c, "name"), dataset.MaxNameLength),
			Icon: dataset.Truncate(str(c, "icon"), dataset.MaxNameLength),
		})
	}

	catsJSON, _ := json.MarshalIndent(cs, "", "  ")
	linksJSON, _ := json.MarshalIndent(ls, "", "  ")
	return "现有分类：\n" + string(catsJSON) + "\n\n书签列表：\n" + string(linksJSON) + "\n\n请整理这些书签，将它们归入合适的分类并排序。"
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
