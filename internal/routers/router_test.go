package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"
	"github.com/haierkeys/cloudnav-sync-service/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testPassword = "correct horse"

type envelope struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app    *app.App
	router *gin.Engine
}

func newTestServer(t *testing.T, password string, mutate ...func(cfg *app.AppConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := app.DefaultConfig()
	require.NoError(t, err)
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg.Database.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	cfg.Database.MaxIdleConns = 1
	cfg.Security.Password = password
	for _, fn := range mutate {
		fn(cfg)
	}

	db, _, err := app.OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	a, err := app.NewApp(cfg, zap.NewNop(), db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	uni, err := validator.Setup()
	require.NoError(t, err)

	return &testServer{app: a, router: NewRouter(a, uni)}
}

func (s *testServer) do(t *testing.T, method, path, password string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if password != "" {
		req.Header.Set("x-auth-password", password)
	}
	req.Header.Set("cf-connecting-ip", "203.0.113.7")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func TestOpenModeRoundTrip(t *testing.T) {
	s := newTestServer(t, "")

	w, env := s.do(t, http.MethodGet, "/api/storage", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decodeData[domain.Document](t, env)
	assert.Equal(t, int64(1), doc.Version)
	assert.Empty(t, doc.Links)

	body := map[string]any{
		"baseVersion": 1,
		"links": []map[string]any{
			{"id": "1", "title": "Go", "url": "https://go.dev", "categoryId": "dev", "createdAt": 1, "order": 0},
		},
		"categories": []map[string]any{
			{"id": "common", "name": "常用推荐", "icon": "Star"},
			{"id": "dev", "name": "Dev", "icon": "Code"},
		},
	}
	w, env = s.do(t, http.MethodPost, "/api/storage", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 202, env.Code)
	saved := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(2), saved["version"])

	_, env = s.do(t, http.MethodGet, "/api/storage", "", nil)
	doc = decodeData[domain.Document](t, env)
	assert.Equal(t, int64(2), doc.Version)
	require.Len(t, doc.Links, 1)
	assert.Equal(t, "https://go.dev", doc.Links[0].URL)
	assert.Equal(t, "dev", doc.Links[0].CategoryID)
	require.Len(t, doc.Categories, 2)

	// 未配置密码时登录直接成功
	w, env = s.do(t, http.MethodPost, "/api/storage/login", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 203, env.Code)
}

func TestStorageConflict(t *testing.T) {
	s := newTestServer(t, testPassword)

	body := map[string]any{"baseVersion": 1, "links": []any{}, "categories": []any{}}
	w, _ := s.do(t, http.MethodPost, "/api/storage", testPassword, body)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/storage", testPassword, body)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 409001, env.Code)
	assert.False(t, env.Status)
	conflict := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(2), conflict["currentVersion"])

	// baseVersion 缺失时按当前版本写入
	w, env = s.do(t, http.MethodPost, "/api/storage", testPassword, map[string]any{"links": []any{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeData[map[string]any](t, env)["version"])
}

func TestStorageConcurrentWriters(t *testing.T) {
	s := newTestServer(t, testPassword)

	const writers = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses []int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, _ := s.do(t, http.MethodPost, "/api/storage", testPassword, map[string]any{"baseVersion": 1, "links": []any{}})
			mu.Lock()
			statuses = append(statuses, w.Code)
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok := 0
	for _, code := range statuses {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, ok)

	doc, err := s.app.DocumentService.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Version)
}

func TestAccessGate(t *testing.T) {
	s := newTestServer(t, testPassword)

	w, env := s.do(t, http.MethodGet, "/api/storage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 401001, env.Code)

	w, env = s.do(t, http.MethodGet, "/api/storage", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 401001, env.Code)

	w, _ = s.do(t, http.MethodGet, "/api/storage", testPassword, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 读取会刷新最后认证时间
	raw, ok, err := s.app.KVRepo.Get(context.Background(), domain.KeyLastAuthTime)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, raw)

	_, env = s.do(t, http.MethodGet, "/api/storage/auth", "", nil)
	status := decodeData[domain.AuthStatus](t, env)
	assert.True(t, status.RequiresAuth)
	assert.True(t, status.HasPassword)
	assert.False(t, status.Expired)

	// 旧格式 checkAuth
	_, env = s.do(t, http.MethodGet, "/api/storage?checkAuth=true", "", nil)
	assert.True(t, decodeData[domain.AuthStatus](t, env).RequiresAuth)
}

func TestPasswordExpired(t *testing.T) {
	s := newTestServer(t, testPassword)
	ctx := context.Background()

	require.NoError(t, s.app.KVRepo.Put(ctx, domain.KeyWebsiteConfig, `{"passwordExpiry":{"value":1,"unit":"day"}}`, 0))
	old := time.Now().Add(-48 * time.Hour).UnixMilli()
	require.NoError(t, s.app.KVRepo.Put(ctx, domain.KeyLastAuthTime, strconv.FormatInt(old, 10), 0))

	w, env := s.do(t, http.MethodGet, "/api/storage", testPassword, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 401002, env.Code)

	_, env = s.do(t, http.MethodGet, "/api/storage/auth", testPassword, nil)
	assert.True(t, decodeData[domain.AuthStatus](t, env).Expired)

	// 重新登录后恢复
	w, env = s.do(t, http.MethodPost, "/api/storage/login", testPassword, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 201, env.Code)

	w, _ = s.do(t, http.MethodGet, "/api/storage", testPassword, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, testPassword)

	for i := 0; i < 10; i++ {
		w, env := s.do(t, http.MethodPost, "/api/storage", "wrong", map[string]any{"authOnly": true})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, 401001, env.Code)
	}
	w, env := s.do(t, http.MethodPost, "/api/storage", testPassword, map[string]any{"authOnly": true})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 429001, env.Code)
}

func TestVerifyHasNoSideEffects(t *testing.T) {
	s := newTestServer(t, testPassword)

	_, env := s.do(t, http.MethodPost, "/api/storage/verify", testPassword, nil)
	assert.True(t, decodeData[map[string]bool](t, env)["valid"])
	_, env = s.do(t, http.MethodPost, "/api/storage/verify", "nope", nil)
	assert.False(t, decodeData[map[string]bool](t, env)["valid"])

	_, ok, err := s.app.KVRepo.Get(context.Background(), domain.KeyLastAuthTime)
	require.NoError(t, err)
	assert.False(t, ok)

	doc, err := s.app.DocumentService.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t, "", func(cfg *app.AppConfig) {
		cfg.Limits.StorageBody = "1KB"
	})

	big := map[string]any{"baseVersion": 1, "links": []map[string]any{{"title": strings.Repeat("x", 4096)}}}
	w, env := s.do(t, http.MethodPost, "/api/storage", "", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 413001, env.Code)
}

func TestConfigRoutes(t *testing.T) {
	s := newTestServer(t, testPassword)

	_, env := s.do(t, http.MethodGet, "/api/config/website", "", nil)
	website := decodeData[domain.WebsiteConfig](t, env)
	assert.Equal(t, domain.ExpiryWeek, website.PasswordExpiry.Unit)

	w, env := s.do(t, http.MethodGet, "/api/config/nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400201, env.Code)

	// 写入需要凭证
	search := map[string]any{"config": map[string]any{"mode": "external", "externalSources": []any{}}}
	w, _ = s.do(t, http.MethodPost, "/api/config/search", "", search)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/config/search", testPassword, search)
	require.Equal(t, http.StatusOK, w.Code)

	_, env = s.do(t, http.MethodGet, "/api/storage?getConfig=search", "", nil)
	assert.Equal(t, "external", decodeData[map[string]any](t, env)["mode"])

	w, env = s.do(t, http.MethodPost, "/api/config/search", testPassword, map[string]any{"config": map[string]any{"mode": "sideways"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400202, env.Code)

	// ai 配置读取也需要凭证
	w, _ = s.do(t, http.MethodGet, "/api/config/ai", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 旧格式 saveConfig
	w, _ = s.do(t, http.MethodPost, "/api/storage", testPassword, map[string]any{
		"saveConfig": "ai",
		"config":     map[string]any{"apiUrl": "https://api.example.com", "apiKey": "k", "model": "m"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	_, env = s.do(t, http.MethodGet, "/api/config/ai", testPassword, nil)
	assert.Equal(t, "m", decodeData[map[string]any](t, env)["model"])
}

func TestFaviconRoutes(t *testing.T) {
	s := newTestServer(t, testPassword)

	_, env := s.do(t, http.MethodGet, "/api/config/favicon?domain=example.com", "", nil)
	fav := decodeData[domain.Favicon](t, env)
	assert.Nil(t, fav.Icon)
	assert.False(t, fav.Cached)

	w, _ := s.do(t, http.MethodPost, "/api/config/favicon", "", map[string]any{"domain": "example.com", "icon": "https://example.com/favicon.ico"})
	require.Equal(t, http.StatusOK, w.Code)

	_, env = s.do(t, http.MethodGet, "/api/storage?getConfig=favicon&domain=example.com", "", nil)
	fav = decodeData[domain.Favicon](t, env)
	require.NotNil(t, fav.Icon)
	assert.Equal(t, "https://example.com/favicon.ico", *fav.Icon)
	assert.True(t, fav.Cached)

	w, env = s.do(t, http.MethodGet, "/api/config/favicon?domain=-bad-", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400203, env.Code)

	w, _ = s.do(t, http.MethodGet, "/api/config/favicon", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/config/favicon", "", map[string]any{"domain": "example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400204, env.Code)
}

func TestLinkRoute(t *testing.T) {
	open := newTestServer(t, "")
	w, env := open.do(t, http.MethodPost, "/api/link", "", map[string]any{"title": "a", "url": "https://a.example"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 401003, env.Code)

	s := newTestServer(t, testPassword)
	w, _ = s.do(t, http.MethodPost, "/api/link", "wrong", map[string]any{"title": "a", "url": "https://a.example"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/link", testPassword, map[string]any{"title": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400301, env.Code)

	w, env = s.do(t, http.MethodPost, "/api/link", testPassword, map[string]any{"title": "a", "url": "javascript:alert(1)"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400302, env.Code)

	w, env = s.do(t, http.MethodPost, "/api/link", testPassword, map[string]any{"title": "Go", "url": "https://go.dev"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 204, env.Code)
	res := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(2), res["version"])

	doc, err := s.app.DocumentService.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Links, 1)
	assert.Equal(t, "https://go.dev", doc.Links[0].URL)
}

func TestImportRoute(t *testing.T) {
	s := newTestServer(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "bookmarks.html")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
<DT><H3>Tools</H3>
<DL><p>
<DT><A HREF="https://example.com/tool">Tool</A>
</DL><p>
<DT><A HREF="https://go.dev">Go</A>
</DL>`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/bookmarks", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	res := decodeData[domain.ImportResult](t, env)
	assert.Len(t, res.Links, 2)
	require.Len(t, res.Categories, 1)
	assert.Equal(t, "Tools", res.Categories[0].Name)

	w, env = s.do(t, http.MethodPost, "/api/import/bookmarks", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400601, env.Code)
}

func TestBackupRoutesDisabled(t *testing.T) {
	s := newTestServer(t, "")

	w, env := s.do(t, http.MethodPost, "/api/backup", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400503, env.Code)

	w, env = s.do(t, http.MethodPost, "/api/webdav", "", map[string]any{"operation": "check"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400501, env.Code)
}

func TestBackupRoutesLocal(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, "", func(cfg *app.AppConfig) {
		cfg.Backup.Enabled = true
		cfg.Backup.KeepCopy = false
		cfg.Backup.Storage.Type = "localfs"
		cfg.Backup.Storage.SavePath = dir
	})

	w, _ := s.do(t, http.MethodPost, "/api/storage", "", map[string]any{
		"baseVersion": 1,
		"links":       []map[string]any{{"id": "1", "title": "Go", "url": "https://go.dev", "categoryId": "gone"}},
		"categories":  []map[string]any{{"id": "dev", "name": "Dev", "icon": "Code"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/backup", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 205, env.Code)

	w, env = s.do(t, http.MethodPost, "/api/backup/restore", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 206, env.Code)

	doc, err := s.app.DocumentService.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.Version)
	require.NotEmpty(t, doc.Categories)
	assert.Equal(t, domain.CommonCategoryID, doc.Categories[0].ID)
	require.Len(t, doc.Links, 1)
	assert.Equal(t, domain.CommonCategoryID, doc.Links[0].CategoryID)

	stale := int64(1)
	w, env = s.do(t, http.MethodPost, "/api/backup/restore", "", map[string]any{"baseVersion": stale})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 409001, env.Code)
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t, "")

	w, env := s.do(t, http.MethodGet, "/api/version", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeData[map[string]any](t, env)
	assert.Equal(t, app.Version, info["version"])
	assert.Equal(t, app.Name, info["name"])
	assert.Equal(t, "database", info["storeBackend"])
	assert.NotContains(t, info, "release")
	assert.Equal(t, app.Version, w.Header().Get("X-App-Version"))

	s.app.SetCheckVersionInfo(pkgapp.CheckVersionInfo{VersionNewName: "v99.0.0"})
	_, env = s.do(t, http.MethodGet, "/api/version", "", nil)
	release, ok := decodeData[map[string]any](t, env)["release"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "99.0.0", release["latest"])
	assert.Contains(t, release["link"], "/tag/v99.0.0")

	w, env = s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeData[map[string]any](t, env)["status"])

	w, env = s.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, env.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/storage", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "x-auth-password")
}

func TestPrivateRouter(t *testing.T) {
	s := newTestServer(t, "")
	s.do(t, http.MethodGet, "/api/version", "", nil)

	private := NewPrivateRouter(s.app)

	w := httptest.NewRecorder()
	private.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cloudnav_http_requests_total")

	w = httptest.NewRecorder()
	private.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cloudnav"`)
}
