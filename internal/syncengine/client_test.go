package syncengine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/routers"
	"github.com/haierkeys/cloudnav-sync-service/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, password string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := app.DefaultConfig()
	require.NoError(t, err)
	cfg.Database.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Database.MaxIdleConns = 1
	cfg.Security.Password = password

	db, rdb, err := app.OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	a, err := app.NewApp(cfg, zap.NewNop(), db, rdb)
	require.NoError(t, err)
	uni, err := validator.Setup()
	require.NoError(t, err)

	srv := httptest.NewServer(routers.NewRouter(a, uni))
	t.Cleanup(func() {
		srv.Close()
		_ = a.Shutdown(context.Background())
	})
	return srv
}

func TestHTTPStore(t *testing.T) {
	srv := newTestServer(t, "pw")
	store := NewHTTPStore(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	status, err := store.CheckAuth(ctx, "")
	require.NoError(t, err)
	assert.True(t, status.RequiresAuth)

	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, store.Login(ctx, "nope"), domain.ErrUnauthorized)
	require.NoError(t, store.Login(ctx, "pw"))

	doc, err := store.Get(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)

	links := []domain.Link{{ID: "1", Title: "Go", URL: "https://go.dev", CategoryID: domain.CommonCategoryID, CreatedAt: 1}}
	cats := []domain.Category{domain.CommonCategory()}
	res, err := store.Put(ctx, "pw", 1, links, cats)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Version)

	_, err = store.Put(ctx, "pw", 1, links, cats)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(1), conflict.ExpectedVersion)
	assert.Equal(t, int64(2), conflict.CurrentVersion)
}

func TestHTTPStore_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, time.Second)
	_, err := store.CheckAuth(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnreachable)

	closed := NewHTTPStore("http://127.0.0.1:1", time.Second)
	_, err = closed.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestEngineAgainstServer(t *testing.T) {
	srv := newTestServer(t, "pw")
	ctx := context.Background()

	e := New(NewHTTPStore(srv.URL, 5*time.Second), NewLocalCache(t.TempDir()))
	require.NoError(t, e.Load(ctx))
	assert.Equal(t, LocalFallback, e.Snapshot().State)

	require.NoError(t, e.Login(ctx, "pw"))
	// 云端为空，保留本地默认数据
	assert.Equal(t, LocalFallback, e.Snapshot().State)
	assert.Equal(t, int64(1), e.Snapshot().ConfirmedVersion)

	_, err := e.AddLink(ctx, dataset.NewLinkInput{Title: "Go", URL: "https://go.dev"})
	require.NoError(t, err)
	snap := e.Snapshot()
	assert.Equal(t, CloudLoaded, snap.State)
	assert.Equal(t, int64(2), snap.ConfirmedVersion)

	other := New(NewHTTPStore(srv.URL, 5*time.Second), NewLocalCache(t.TempDir()), WithCredential("pw"))
	require.NoError(t, other.Load(ctx))
	assert.Equal(t, CloudLoaded, other.Snapshot().State)
	assert.Len(t, other.Snapshot().Links, len(snap.Links))

	require.NoError(t, other.DeleteCategory(ctx, "dev"))
	err = e.DeleteCategory(ctx, "design")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(3), conflict.CurrentVersion)
	assert.Equal(t, SyncError, e.Snapshot().State)
}
