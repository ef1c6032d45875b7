package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// 配置名称
const (
	ConfigSearch  = "search"
	ConfigSite    = "site"
	ConfigWebsite = "website"
	ConfigAI      = "ai"
	ConfigFavicon = "favicon"
)

var domainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]{0,253}[a-zA-Z0-9]$`)

const searchConfigSchema = `{
  "type": "object",
  "properties": {
    "mode": {"enum": ["internal", "external"]},
    "externalSources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "url"],
        "properties": {
          "id": {"type": "string", "maxLength": 100},
          "name": {"type": "string", "maxLength": 200},
          "url": {"type": "string", "maxLength": 2048},
          "icon": {"type": "string", "maxLength": 2048},
          "enabled": {"type": "boolean"}
        }
      }
    },
    "selectedSource": {"type": ["object", "null"]}
  }
}`

const websiteConfigSchema = `{
  "type": "object",
  "properties": {
    "passwordExpiry": {
      "type": "object",
      "required": ["unit"],
      "properties": {
        "value": {"type": "integer"},
        "unit": {"enum": ["day", "week", "month", "year", "permanent"]}
      }
    }
  }
}`

// ConfigService 配置存储，各配置独立保存，后写覆盖
type ConfigService interface {
	GetSearch(ctx context.Context) (domain.RawJSON, error)
	PutSearch(ctx context.Context, cfg map[string]any) error
	GetSite(ctx context.Context) (domain.RawJSON, error)
	PutSite(ctx context.Context, cfg map[string]any) (*domain.SiteConfig, error)
	GetWebsite(ctx context.Context) (domain.RawJSON, error)
	PutWebsite(ctx context.Context, cfg map[string]any) (*domain.WebsiteConfig, error)
	GetAI(ctx context.Context) (domain.RawJSON, error)
	LoadAI(ctx context.Context) (*domain.AIConfig, error)
	PutAI(ctx context.Context, cfg map[string]any) (*domain.AIConfig, error)
	GetFavicon(ctx context.Context, domainName string) (*domain.Favicon, error)
	PutFavicon(ctx context.Context, domainName, icon string) error
}

type configService struct {
	kv         domain.KVRepository
	faviconTTL time.Duration
	search     *jsonschema.Schema
	website    *jsonschema.Schema
	logger     *zap.Logger
}

// NewConfigService 创建 ConfigService 实例
func NewConfigService(kv domain.KVRepository, limits LimitsServiceConfig, logger *zap.Logger) (ConfigService, error) {
	search, err := compileSchema("https://cloudnav.local/schema/search_config.json", searchConfigSchema)
	if err != nil {
		return nil, err
	}
	website, err := compileSchema("https://cloudnav.local/schema/website_config.json", websiteConfigSchema)
	if err != nil {
		return nil, err
	}
	ttl := limits.FaviconTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &configService{kv: kv, faviconTTL: ttl, search: search, website: website, logger: logger}, nil
}

func compileSchema(name, src string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add %s: %w", name, err)
	}
	return c.Compile(name)
}

// validate 按 JSON 重新解码后校验，保证数字类型与 schema 一致
func validate(schema *jsonschema.Schema, cfg map[string]any) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return &ConfigInvalidError{Err: err}
	}
	return nil
}

// ConfigInvalidError 配置未通过校验
type ConfigInvalidError struct {
	Err error
}

func (e *ConfigInvalidError) Error() string {
	return "invalid config: " + e.Err.Error()
}

func (e *ConfigInvalidError) Unwrap() error {
	return e.Err
}

func (s *configService) getRaw(ctx context.Context, key string, fallback string) (domain.RawJSON, error) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || v == "" || !json.Valid([]byte(v)) {
		return domain.RawJSON(fallback), nil
	}
	return domain.RawJSON(v), nil
}

func (s *configService) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, key, string(b), 0); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *configService) GetSearch(ctx context.Context) (domain.RawJSON, error) {
	return s.getRaw(ctx, domain.KeySearchConfig, "{}")
}

func (s *configService) PutSearch(ctx context.Context, cfg map[string]any) error {
	if cfg == nil {
		cfg = map[string]any{}
	}
	if err := validate(s.search, cfg); err != nil {
		return err
	}
	return s.putJSON(ctx, domain.KeySearchConfig, cfg)
}

func (s *configService) GetSite(ctx context.Context) (domain.RawJSON, error) {
	return s.getRaw(ctx, domain.KeySiteConfig, "{}")
}

func (s *configService) PutSite(ctx context.Context, cfg map[string]any) (*domain.SiteConfig, error) {
	sc := dataset.SanitizeSiteConfig(cfg)
	if err := s.putJSON(ctx, domain.KeySiteConfig, sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *configService) GetWebsite(ctx context.Context) (domain.RawJSON, error) {
	def, _ := json.Marshal(domain.DefaultWebsiteConfig())
	return s.getRaw(ctx, domain.KeyWebsiteConfig, string(def))
}

func (s *configService) PutWebsite(ctx context.Context, cfg map[string]any) (*domain.WebsiteConfig, error) {
	if cfg == nil {
		cfg = map[string]any{}
	}
	if err := validate(s.website, cfg); err != nil {
		return nil, err
	}

	wc := domain.DefaultWebsiteConfig()
	if pe, ok := cfg["passwordExpiry"].(map[string]any); ok {
		unit, _ := pe["unit"].(string)
		wc.PasswordExpiry.Unit = domain.ExpiryUnit(unit)
		wc.PasswordExpiry.Value = 1
		if v, ok := pe["value"].(float64); ok && v >= 1 {
			wc.PasswordExpiry.Value = int(v)
		}
	}
	if err := s.putJSON(ctx, domain.KeyWebsiteConfig, wc); err != nil {
		return nil, err
	}
	return &wc, nil
}

func (s *configService) GetAI(ctx context.Context) (domain.RawJSON, error) {
	return s.getRaw(ctx, domain.KeyAIConfig, "{}")
}

// LoadAI 读取 AI 配置，缺失时返回空配置，格式错误时返回 ErrAIConfigMissing
func (s *configService) LoadAI(ctx context.Context) (*domain.AIConfig, error) {
	v, ok, err := s.kv.Get(ctx, domain.KeyAIConfig)
	if err != nil {
		return nil, fmt.Errorf("read ai config: %w", err)
	}
	c := &domain.AIConfig{}
	if !ok {
		return c, nil
	}
	if err := json.Unmarshal([]byte(v), c); err != nil {
		return nil, domain.ErrAIConfigMissing
	}
	return c, nil
}

func (s *configService) PutAI(ctx context.Context, cfg map[string]any) (*domain.AIConfig, error) {
	ac := dataset.SanitizeAIConfig(cfg)
	if err := s.putJSON(ctx, domain.KeyAIConfig, ac); err != nil {
		return nil, err
	}
	return &ac, nil
}

// ValidDomain 站点域名格式，用于防止 KV 键注入
func ValidDomain(d string) bool {
	return domainPattern.MatchString(d)
}

func (s *configService) GetFavicon(ctx context.Context, domainName string) (*domain.Favicon, error) {
	if !ValidDomain(domainName) {
		return nil, domain.ErrInvalidDomain
	}
	v, ok, err := s.kv.Get(ctx, domain.KeyFaviconPrefix+domainName)
	if err != nil {
		return nil, fmt.Errorf("read favicon: %w", err)
	}
	if !ok || v == "" {
		return &domain.Favicon{}, nil
	}
	return &domain.Favicon{Icon: &v, Cached: true}, nil
}

func (s *configService) PutFavicon(ctx context.Context, domainName, icon string) error {
	if !ValidDomain(domainName) {
		return domain.ErrInvalidDomain
	}
	if icon == "" || len(icon) > dataset.MaxURLLength {
		return &ConfigInvalidError{Err: fmt.Errorf("invalid icon url")}
	}
	if err := s.kv.Put(ctx, domain.KeyFaviconPrefix+domainName, icon, s.faviconTTL); err != nil {
		return fmt.Errorf("write favicon: %w", err)
	}
	return nil
}
