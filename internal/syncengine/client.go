package syncengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// AuthHeader 凭证请求头
const AuthHeader = "x-auth-password"

// ErrUnreachable 服务端不可达或返回了无法识别的响应
var ErrUnreachable = errors.New("server unreachable")

// Store Engine 依赖的远端文档存储
type Store interface {
	// CheckAuth 不要求凭证正确
	CheckAuth(ctx context.Context, credential string) (*domain.AuthStatus, error)
	// Login 校验凭证并刷新服务端认证时间
	Login(ctx context.Context, credential string) error
	// Get 读取文档
	Get(ctx context.Context, credential string) (*domain.Document, error)
	// Put 条件写入，版本不一致时返回 *domain.ConflictError
	Put(ctx context.Context, credential string, baseVersion int64, links []domain.Link, cats []domain.Category) (*domain.WriteResult, error)
}

// envelope 服务端统一响应格式
type envelope struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPStore 通过 HTTP API 访问文档存储
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore baseURL 形如 http://127.0.0.1:9000
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

var _ Store = (*HTTPStore)(nil)

func (s *HTTPStore) CheckAuth(ctx context.Context, credential string) (*domain.AuthStatus, error) {
	status := &domain.AuthStatus{}
	if _, err := s.do(ctx, http.MethodGet, "/api/storage/auth", credential, nil, status); err != nil {
		return nil, err
	}
	return status, nil
}

func (s *HTTPStore) Login(ctx context.Context, credential string) error {
	_, err := s.do(ctx, http.MethodPost, "/api/storage/login", credential, nil, nil)
	return err
}

func (s *HTTPStore) Get(ctx context.Context, credential string) (*domain.Document, error) {
	doc := &domain.Document{}
	if _, err := s.do(ctx, http.MethodGet, "/api/storage", credential, nil, doc); err != nil {
		return nil, err
	}
	if doc.Version < 1 {
		doc.Version = 1
	}
	return doc, nil
}

func (s *HTTPStore) Put(ctx context.Context, credential string, baseVersion int64, links []domain.Link, cats []domain.Category) (*domain.WriteResult, error) {
	body := map[string]any{
		"baseVersion": baseVersion,
		"links":       links,
		"categories":  cats,
	}
	res := &domain.WriteResult{}
	env, err := s.do(ctx, http.MethodPost, "/api/storage", credential, body, res)
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			conflict.ExpectedVersion = baseVersion
		}
		return nil, err
	}
	if res.Version == 0 {
		return nil, errors.Wrapf(ErrUnreachable, "unexpected response code %d", env.Code)
	}
	return res, nil
}

// do 发送请求并解析响应，失败的响应码映射为领域错误
func (s *HTTPStore) do(ctx context.Context, method, path, credential string, body any, out any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set(AuthHeader, credential)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	env := &envelope{}
	if err := sonic.Unmarshal(raw, env); err != nil || env.Code == 0 {
		return nil, fmt.Errorf("%w: http %d", ErrUnreachable, resp.StatusCode)
	}

	if !env.Status {
		return env, codeError(env)
	}
	if out != nil && len(env.Data) > 0 {
		if err := sonic.Unmarshal(env.Data, out); err != nil {
			return env, errors.Wrap(err, "decode response data")
		}
	}
	return env, nil
}

// codeError 响应码到领域错误
func codeError(env *envelope) error {
	switch env.Code {
	case 401001:
		return domain.ErrUnauthorized
	case 401002:
		return domain.ErrExpired
	case 401003:
		return domain.ErrAuthRequired
	case 429001:
		return domain.ErrTooManyAttempts
	case 409001:
		var data struct {
			CurrentVersion int64 `json:"currentVersion"`
		}
		_ = sonic.Unmarshal(env.Data, &data)
		return &domain.ConflictError{CurrentVersion: data.CurrentVersion}
	case 413001:
		return domain.ErrTooLarge
	case 400101:
		return domain.ErrTooManyLinks
	case 400102:
		return domain.ErrTooManyCategories
	case 400103:
		return domain.ErrInvalidDocument
	case 400104:
		return domain.ErrReservedCategory
	}
	return &ServerError{Code: env.Code, Message: env.Message}
}

// ServerError 未单独映射的失败响应
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}
