package boot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"oneplace/internal/config"
	"oneplace/internal/domain/model"
	"oneplace/internal/logging"
	"oneplace/internal/metrics"
	"oneplace/internal/repository/dao"
	"oneplace/internal/repository/database"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenPort(t *testing.T) {
	cases := map[string]string{
		":8000":        "8000",
		"0.0.0.0:9000": "9000",
		"[::1]:7000":   "7000",
		"":             "0",
		"nonsense":     "0",
	}
	for in, want := range cases {
		assert.Equal(t, want, listenPort(in), in)
	}
}

func TestProvideHealthCheckerSkipsDisabledClients(t *testing.T) {
	c := &config.Config{}
	c.Database.Driver = "sqlite"
	c.Database.DSN = "file::memory:"
	c.Database.MaxOpen = 1
	lg, err := NewLogger(c)
	require.NoError(t, err)
	db, err := NewDatabase(c, lg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	assert.Nil(t, NewRedis(c))
	assert.Nil(t, NewKafkaProducer(c))
	assert.Nil(t, NewAccessSender(c, nil, lg))

	hc := ProvideHealthChecker(db, nil, nil, nil)
	res, code := hc.Readiness(context.Background())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "up", res["db"])
	assert.NotContains(t, res, "redis")
	assert.NotContains(t, res, "kafka")
	assert.NotContains(t, res, "etcd")
}

func writeConfig(t *testing.T, mode string) string {
	t.Helper()
	body := `
http:
  addr: ":18000"
  mode: test
database:
  driver: sqlite
  dsn: "file::memory:"
  max_open: 1
log:
  level: error
navigation:
  mode: ` + mode + `
  seed: true
`
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestInitAppSeededTreeMatchesStatic(t *testing.T) {
	app, err := InitApp(writeConfig(t, config.NavigationModeTree))
	require.NoError(t, err)
	defer app.Close()

	w := httptest.NewRecorder()
	app.HTTP.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/navigation", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []model.MenuItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, model.StammdatenMenu(), got[0])
}

func TestInitAppStaticMode(t *testing.T) {
	app, err := InitApp(writeConfig(t, config.NavigationModeStatic))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	app.HTTP.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/navigation", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got model.MenuItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Stammdaten", got.Title)

	app.Close()
	app.Close()
}

func TestInitAppBadConfig(t *testing.T) {
	_, err := InitApp(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewAppSetsDBUpFromPing(t *testing.T) {
	c := &config.Config{}
	c.Database.Driver = "sqlite"
	c.Database.DSN = "file::memory:"
	c.Database.MaxOpen = 1
	c.Database.AutoMigrate = true
	lg := logging.Nop()
	db, err := NewDatabase(c, lg)
	require.NoError(t, err)

	app := NewApp(c, lg, db, nil, nil, nil, nil, nil, dao.NewNavigationDAO(db), nil, nil)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.DBUp))
	app.Close()

	// db 已关闭：迁移失败、ping 失败，db_up 不能报 1
	closed := NewApp(c, lg, db, nil, nil, nil, nil, nil, dao.NewNavigationDAO(db), nil, nil)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.DBUp))
	closed.Close()
}
