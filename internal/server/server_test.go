package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/domain"
	custommiddleware "catalog-service/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	cfg := config.FromViper(v)

	peers := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(peers.Close)
	cfg.Services.InventoryURL = peers.URL
	cfg.Services.NotificationURL = peers.URL
	return cfg
}

func token(t *testing.T, secret, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func send(t *testing.T, h http.Handler, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	router := NewRouter(testConfig(t), zap.NewNop(), nil, nil)

	w := send(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"up","store":"memory"}`, w.Body.String())

	send(t, router, http.MethodGet, "/api/v1/products", "", nil)

	w = send(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), `path="/api/v1/products`)
}

func TestWritesRequireRoleWhenSecretIsSet(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWT.Secret = "catalog-secret"
	router := NewRouter(cfg, zap.NewNop(), nil, nil)

	category := map[string]interface{}{"name": "Garden"}

	assert.Equal(t, http.StatusUnauthorized, send(t, router, http.MethodPost, "/api/v1/categories", "", category).Code)
	assert.Equal(t, http.StatusForbidden,
		send(t, router, http.MethodPost, "/api/v1/categories", token(t, cfg.JWT.Secret, "viewer"), category).Code)

	w := send(t, router, http.MethodPost, "/api/v1/categories", token(t, cfg.JWT.Secret, custommiddleware.RoleCatalogManager), category)
	require.Equal(t, http.StatusCreated, w.Code)
	var created domain.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	assert.Equal(t, http.StatusForbidden,
		send(t, router, http.MethodDelete, "/api/v1/categories/"+created.ID, token(t, cfg.JWT.Secret, custommiddleware.RoleCatalogManager), nil).Code)
	assert.Equal(t, http.StatusNoContent,
		send(t, router, http.MethodDelete, "/api/v1/categories/"+created.ID, token(t, cfg.JWT.Secret, custommiddleware.RoleAdmin), nil).Code)

	assert.Equal(t, http.StatusOK, send(t, router, http.MethodGet, "/api/v1/categories", "", nil).Code)
}

func TestRedisBackedCachesAndRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := testConfig(t)
	cfg.Cache.Backend = "redis"
	cfg.RateLimit.Requests = 3
	router := NewRouter(cfg, zap.NewNop(), nil, redisClient)

	w := send(t, router, http.MethodPost, "/api/v1/categories", "", map[string]interface{}{"name": "Garden"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created domain.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	require.Equal(t, http.StatusOK, send(t, router, http.MethodGet, "/api/v1/categories/"+created.ID, "", nil).Code)
	assert.True(t, mr.Exists("categories:"+created.ID), "category read is cached in redis")

	require.Equal(t, http.StatusOK, send(t, router, http.MethodGet, "/api/v1/categories", "", nil).Code)
	w = send(t, router, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}
