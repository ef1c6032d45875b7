package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/pkg/limiter"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"github.com/haierkeys/cloudnav-sync-service/pkg/metrics"
	"go.uber.org/zap"
)

// AuthorizeOptions 授权选项
type AuthorizeOptions struct {
	// CheckExpiry 校验凭证有效期，通过后刷新 last_auth_time
	CheckExpiry bool
	// Required 开放模式下也要求已配置密码
	Required bool
}

// LoginResult 登录结果
type LoginResult struct {
	Success            bool `json:"success"`
	NoPasswordRequired bool `json:"noPasswordRequired,omitempty"`
}

// GateService 访问控制
type GateService interface {
	// RequiresAuth 是否配置了访问密码
	RequiresAuth() bool
	// Verify 常量时间比较凭证，无副作用
	Verify(candidate string) bool
	// CheckAuth 查询认证状态，不要求凭证正确
	CheckAuth(ctx context.Context, candidate string) (*domain.AuthStatus, error)
	// Authorize 校验凭证，返回 ErrUnauthorized/ErrExpired
	Authorize(ctx context.Context, candidate string, opts AuthorizeOptions) error
	// Login 登录，先限流再校验
	Login(ctx context.Context, ip, candidate string) (*LoginResult, error)
	// IsExpired 按 website_config 的有效期策略判断是否过期
	IsExpired(ctx context.Context, now time.Time) (bool, error)
	// PruneAttempts 清理过期的登录限流记录
	PruneAttempts() int
}

type gateService struct {
	kv       domain.KVRepository
	digest   [32]byte
	enabled  bool
	attempts *limiter.AttemptWindow
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewGateService 创建 GateService 实例
func NewGateService(kv domain.KVRepository, cfg SecurityServiceConfig, m *metrics.Metrics, logger *zap.Logger) GateService {
	maxAttempts := cfg.LoginMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	window := cfg.LoginWindow
	if window <= 0 {
		window = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gateService{
		kv:       kv,
		digest:   sha256.Sum256([]byte(cfg.Password)),
		enabled:  strings.TrimSpace(cfg.Password) != "",
		attempts: limiter.NewAttemptWindow(maxAttempts, window),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *gateService) RequiresAuth() bool {
	return s.enabled
}

// Verify 比较两侧的 SHA-256 摘要，长度不同也不会提前返回
func (s *gateService) Verify(candidate string) bool {
	if !s.enabled {
		return true
	}
	d := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(d[:], s.digest[:]) == 1
}

func (s *gateService) CheckAuth(ctx context.Context, candidate string) (*domain.AuthStatus, error) {
	if !s.enabled {
		return &domain.AuthStatus{}, nil
	}
	status := &domain.AuthStatus{HasPassword: true, RequiresAuth: true}
	if candidate != "" && s.Verify(candidate) {
		expired, err := s.IsExpired(ctx, s.now())
		if err != nil {
			return nil, err
		}
		status.Expired = expired
	}
	return status, nil
}

func (s *gateService) Authorize(ctx context.Context, candidate string, opts AuthorizeOptions) error {
	if !s.enabled {
		if opts.Required {
			s.observe("unset")
			return domain.ErrUnauthorized
		}
		return nil
	}
	if !s.Verify(candidate) {
		s.observe("unauthorized")
		return domain.ErrUnauthorized
	}
	if !opts.CheckExpiry {
		s.observe("ok")
		return nil
	}

	now := s.now()
	expired, err := s.IsExpired(ctx, now)
	if err != nil {
		return err
	}
	if expired {
		s.observe("expired")
		return domain.ErrExpired
	}
	s.observe("ok")
	return s.touch(ctx, now)
}

func (s *gateService) Login(ctx context.Context, ip, candidate string) (*LoginResult, error) {
	if !s.enabled {
		return &LoginResult{Success: true, NoPasswordRequired: true}, nil
	}
	if !s.attempts.Allow(ip) {
		s.observe("rate_limited")
		s.logger.Warn("login rate limited", zap.String(logger.FieldIP, ip))
		return nil, domain.ErrTooManyAttempts
	}
	if !s.Verify(candidate) {
		s.observe("unauthorized")
		s.logger.Info("login failed", zap.String(logger.FieldIP, ip))
		return nil, domain.ErrUnauthorized
	}
	s.observe("ok")
	if err := s.touch(ctx, s.now()); err != nil {
		return nil, err
	}
	return &LoginResult{Success: true}, nil
}

func (s *gateService) IsExpired(ctx context.Context, now time.Time) (bool, error) {
	policy, err := s.policy(ctx)
	if err != nil {
		return false, err
	}
	if policy.Unit == domain.ExpiryPermanent {
		return false, nil
	}

	raw, ok, err := s.kv.Get(ctx, domain.KeyLastAuthTime)
	if err != nil {
		return false, fmt.Errorf("read last auth time: %w", err)
	}
	if !ok {
		return false, nil
	}
	last, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || last <= 0 {
		return false, nil
	}

	d := ExpiryDuration(policy)
	return d > 0 && now.UnixMilli()-int64(last) > d.Milliseconds(), nil
}

func (s *gateService) PruneAttempts() int {
	return s.attempts.Prune()
}

func (s *gateService) policy(ctx context.Context) (domain.ExpiryPolicy, error) {
	def := domain.DefaultWebsiteConfig().PasswordExpiry
	raw, ok, err := s.kv.Get(ctx, domain.KeyWebsiteConfig)
	if err != nil {
		return def, fmt.Errorf("read website config: %w", err)
	}
	if !ok {
		return def, nil
	}
	var wc struct {
		PasswordExpiry *domain.ExpiryPolicy `json:"passwordExpiry"`
	}
	if err := json.Unmarshal([]byte(raw), &wc); err != nil || wc.PasswordExpiry == nil {
		return def, nil
	}
	return *wc.PasswordExpiry, nil
}

func (s *gateService) touch(ctx context.Context, now time.Time) error {
	if err := s.kv.Put(ctx, domain.KeyLastAuthTime, strconv.FormatInt(now.UnixMilli(), 10), 0); err != nil {
		return fmt.Errorf("touch last auth time: %w", err)
	}
	return nil
}

func (s *gateService) observe(result string) {
	if s.metrics != nil {
		s.metrics.AuthAttempts.WithLabelValues(result).Inc()
	}
}

// ExpiryDuration 有效期时长，permanent 或未知单位返回 0
func ExpiryDuration(p domain.ExpiryPolicy) time.Duration {
	v := p.Value
	if v < 1 {
		v = 1
	}
	day := 24 * time.Hour
	switch p.Unit {
	case domain.ExpiryDay:
		return time.Duration(v) * day
	case domain.ExpiryWeek:
		return time.Duration(v) * 7 * day
	case domain.ExpiryMonth:
		return time.Duration(v) * 30 * day
	case domain.ExpiryYear:
		return time.Duration(v) * 365 * day
	}
	return 0
}
