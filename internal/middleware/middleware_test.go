package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/service"
	"github.com/haierkeys/cloudnav-sync-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGate struct {
	service.GateService
	password string
	err      error
	got      service.AuthorizeOptions
}

func (g *fakeGate) RequiresAuth() bool { return g.password != "" }

func (g *fakeGate) Authorize(ctx context.Context, candidate string, opts service.AuthorizeOptions) error {
	g.got = opts
	if g.err != nil {
		return g.err
	}
	if g.password == "" {
		if opts.Required {
			return domain.ErrUnauthorized
		}
		return nil
	}
	if candidate != g.password {
		return domain.ErrUnauthorized
	}
	return nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/x", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, string(b))
	})
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetTraceID(c.Request.Context())) })
	return r
}

func do(r http.Handler, method, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x", strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func respCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var res struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Code
}

func TestAccessGate(t *testing.T) {
	tests := []struct {
		name       string
		gate       *fakeGate
		opts       service.AuthorizeOptions
		header     string
		wantStatus int
		wantCode   int
	}{
		{"open mode", &fakeGate{}, service.AuthorizeOptions{}, "", http.StatusOK, 0},
		{"open mode required", &fakeGate{}, service.AuthorizeOptions{Required: true}, "", http.StatusUnauthorized, 401003},
		{"correct password", &fakeGate{password: "pw"}, service.AuthorizeOptions{}, "pw", http.StatusOK, 0},
		{"wrong password", &fakeGate{password: "pw"}, service.AuthorizeOptions{}, "nope", http.StatusUnauthorized, 401001},
		{"expired", &fakeGate{password: "pw", err: domain.ErrExpired}, service.AuthorizeOptions{CheckExpiry: true}, "pw", http.StatusUnauthorized, 401002},
		{"store failure", &fakeGate{password: "pw", err: io.ErrUnexpectedEOF}, service.AuthorizeOptions{}, "pw", http.StatusInternalServerError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(AccessGate(tt.gate, tt.opts))
			w := do(r, http.MethodPost, "ok", map[string]string{AuthHeader: tt.header})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.opts, tt.gate.got)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, respCode(t, w))
			} else {
				assert.Equal(t, "ok", w.Body.String())
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	r := newEngine(BodyLimit(8))

	w := do(r, http.MethodPost, "12345678", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "123456789", nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 413001, respCode(t, w))

	// 未声明长度的请求在读取时被截断
	req := httptest.NewRequest(http.MethodPost, "/x", io.NopCloser(strings.NewReader("123456789")))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCors(t *testing.T) {
	r := newEngine(Cors())

	// OPTIONS 未注册路由，由中间件提前返回
	w := do(r, http.MethodOptions, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), AuthHeader)

	w = do(r, http.MethodPost, "hi", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "hi", w.Body.String())
}

func TestTraceMiddleware(t *testing.T) {
	r := newEngine(TraceMiddleware(true, ""))

	w := do(r, http.MethodGet, "", map[string]string{DefaultTraceIDHeader: "abc"})
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get(DefaultTraceIDHeader))

	w = do(r, http.MethodGet, "", nil)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(DefaultTraceIDHeader))

	off := newEngine(TraceMiddleware(false, ""))
	w = do(off, http.MethodGet, "", nil)
	assert.Empty(t, w.Header().Get(DefaultTraceIDHeader))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryWithLogger(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	r := newEngine(Metrics(m), ContextTimeout(time.Second))

	do(r, http.MethodPost, "a", nil)
	do(r, http.MethodPost, "b", nil)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "cloudnav_http_requests_total" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, float64(2), f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}
