package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oneplace/internal/config"
	"oneplace/internal/domain/model"
	"oneplace/internal/logging"
	"oneplace/internal/pkg/cache"
	"oneplace/internal/repository/dao"
	"oneplace/internal/repository/database"
	"oneplace/internal/server/http/handler"
	"oneplace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	dao    *dao.NavigationDAO
	engine *gin.Engine
}

func newTestEnv(t *testing.T, mode string) *testEnv {
	t.Helper()
	return newCachedTestEnv(t, mode, 0)
}

func newCachedTestEnv(t *testing.T, mode string, ttl time.Duration) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.New(database.Config{Driver: "sqlite", DSN: "file::memory:", MaxOpen: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db, &model.NavigationNode{}))
	t.Cleanup(func() { _ = database.Close(db) })

	d := dao.NewNavigationDAO(db)
	lc := cache.NewLayered(cache.NewLocal(), nil)
	svc := service.NewNavigationService(d, lc, logging.Nop(), mode, ttl)
	hs := handler.NewHandlerSet(handler.Dependencies{Navigation: svc, Cache: lc, Logger: logging.Nop()})
	hc := NewHealthChecker().Add("db", DBPinger{DB: db}, 300*time.Millisecond, nil, true)
	return &testEnv{db: db, dao: d, engine: NewRouter(logging.Nop(), hs, hc, nil)}
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (e *testEnv) insert(t *testing.T, n model.NavigationNode) {
	t.Helper()
	require.NoError(t, e.db.Omit("Parent", "Children").Create(&n).Error)
}

func TestHello(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeTree)
	w := env.get("/hello/Ada")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Hello, Ada!"}`, w.Body.String())

	w = env.get("/hello/Grace%20Hopper")
	assert.JSONEq(t, `{"message":"Hello, Grace Hopper!"}`, w.Body.String())
}

func TestNavigationStaticEmptyStore(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeStatic)
	w := env.get("/navigation")
	require.Equal(t, http.StatusOK, w.Code)

	var got model.MenuItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, model.StammdatenMenu(), got)
}

func TestNavigationStaticIgnoresRows(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeStatic)
	env.insert(t, model.NavigationNode{ID: 1, Title: "Shop"})

	var got model.MenuItem
	require.NoError(t, json.Unmarshal(env.get("/navigation").Body.Bytes(), &got))
	assert.Equal(t, "Stammdaten", got.Title)
	require.Len(t, got.Childs, 4)
}

func TestNavigationTreeShopCatalog(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeTree)
	root := int64(1)
	env.insert(t, model.NavigationNode{ID: 1, Title: "Shop"})
	env.insert(t, model.NavigationNode{ID: 2, Title: "Catalog", ParentID: &root})

	w := env.get("/navigation")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"title":"Shop","icon":null,"link":null,"childs":[{"title":"Catalog","icon":null,"link":null,"childs":null}]}]`, w.Body.String())
}

func TestNavigationTreeEmptyStore(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeTree)
	w := env.get("/navigation")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestNavigationTreeOrphanPromoted(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeTree)
	missing := int64(99)
	env.insert(t, model.NavigationNode{ID: 3, Title: "Lost", ParentID: &missing})

	w := env.get("/navigation")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"title":"Lost","icon":null,"link":null,"childs":null}]`, w.Body.String())
}

func TestNavigationStoreUnavailable(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeTree)
	require.NoError(t, database.Close(env.db))

	w := env.get("/navigation")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"code":-3,"msg":"navigation store unavailable"}`, w.Body.String())

	w = env.get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthAndNotFound(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeTree)
	assert.Equal(t, http.StatusOK, env.get("/healthz").Code)

	w := env.get("/readyz")
	require.Equal(t, http.StatusOK, w.Code)
	var ready map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "ok", ready["status"])
	assert.Equal(t, "up", ready["db"])

	w = env.get("/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":-8,"msg":"not found"}`, w.Body.String())
}

func TestCacheEndpoints(t *testing.T) {
	env := newTestEnv(t, config.NavigationModeTree)
	w := env.get("/cache/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":true`)

	w = env.get("/cache/reset")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"l1_flushed":false`)
}

func TestCacheResetFlushServesFreshTree(t *testing.T) {
	env := newCachedTestEnv(t, config.NavigationModeTree, time.Minute)
	env.insert(t, model.NavigationNode{ID: 1, Title: "Shop"})
	assert.JSONEq(t, `[{"title":"Shop","icon":null,"link":null,"childs":null}]`, env.get("/navigation").Body.String())

	env.insert(t, model.NavigationNode{ID: 2, Title: "Blog"})
	assert.JSONEq(t, `[{"title":"Shop","icon":null,"link":null,"childs":null}]`, env.get("/navigation").Body.String())

	w := env.get("/cache/reset?flush=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"l1_flushed":true`)
	assert.JSONEq(t, `[{"title":"Shop","icon":null,"link":null,"childs":null},{"title":"Blog","icon":null,"link":null,"childs":null}]`, env.get("/navigation").Body.String())
}

type flakyPinger struct{ err error }

func (f flakyPinger) Ping(context.Context) error { return f.err }

func TestReadinessOptionalDependency(t *testing.T) {
	hc := NewHealthChecker().
		Add("db", flakyPinger{}, time.Second, nil, true).
		Add("redis", flakyPinger{err: errors.New("refused")}, time.Second, nil, false)

	res, code := hc.Readiness(context.Background())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "refused", res["redis"])

	hc = NewHealthChecker().Add("db", flakyPinger{err: errors.New("down")}, time.Second, nil, true)
	_, code = hc.Readiness(context.Background())
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
