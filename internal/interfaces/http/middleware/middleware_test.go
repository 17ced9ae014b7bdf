package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kaiapay.backend/internal/metrics"
	"kaiapay.backend/pkg/jwt"
	"kaiapay.backend/pkg/logger"
	redispkg "kaiapay.backend/pkg/redis"
)

type stubVerifier struct {
	claims *jwt.Claims
	err    error
	got    string
}

func (s *stubVerifier) ValidateToken(_ context.Context, token string) (*jwt.Claims, error) {
	s.got = token
	return s.claims, s.err
}

func claimsFor(userID string) *jwt.Claims {
	c := &jwt.Claims{}
	c.Subject = userID
	return c
}

func newAuthRouter(v TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(v))
	r.GET("/me", func(c *gin.Context) {
		id, ok := GetUserID(c)
		ctxID, _ := c.Request.Context().Value(logger.UserIDKey).(string)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok, "ctx": ctxID})
	})
	return r
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	r := newAuthRouter(&stubVerifier{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
}

func TestAuthMiddleware_BearerHeader(t *testing.T) {
	v := &stubVerifier{claims: claimsFor("did:privy:abc")}
	r := newAuthRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthorizationHeader, "Bearer tok-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-1", v.got)
	assert.JSONEq(t, `{"id":"did:privy:abc","ok":true,"ctx":"did:privy:abc"}`, w.Body.String())
}

func TestAuthMiddleware_CookieWinsOverHeader(t *testing.T) {
	v := &stubVerifier{claims: claimsFor("did:privy:abc")}
	r := newAuthRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "cookie-tok"})
	req.Header.Set(AuthorizationHeader, "Bearer header-tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cookie-tok", v.got)
}

func TestAuthMiddleware_NonBearerScheme(t *testing.T) {
	r := newAuthRouter(&stubVerifier{claims: claimsFor("x")})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthorizationHeader, "Basic Zm9vOmJhcg==")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectedTokens(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"expired", jwt.ErrExpiredToken, "token has expired"},
		{"invalid", jwt.ErrInvalidToken, "invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAuthRouter(&stubVerifier{err: tc.err})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set(AuthorizationHeader, "Bearer tok")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tc.message)
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(UserIDKey, 42)
	_, ok = GetUserID(c)
	assert.False(t, ok)
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) {
		ctxID, _ := c.Request.Context().Value(logger.RequestIDKey).(string)
		c.String(http.StatusOK, c.GetString(RequestIDKey)+"|"+ctxID)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123|req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated+"|"+generated, w.Body.String())
}

func TestLoggerMiddleware_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggerMiddleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/metrics-test/:code", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics-test/abc"+strings.Repeat("x", i), nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	var m dto.Metric
	require.NoError(t, metrics.HTTPRequestsTotal.WithLabelValues("GET", "/metrics-test/:code", "200").Write(&m))
	assert.Equal(t, float64(2), m.GetCounter().GetValue())

	var unmatched dto.Metric
	require.NoError(t, metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404").Write(&unmatched))
	assert.GreaterOrEqual(t, unmatched.GetCounter().GetValue(), float64(1))
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv := miniredis.RunT(t)
	cli := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() { _ = cli.Close() })
	return srv
}

func newIdempotentRouter(calls *int, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(UserIDKey, "user-1")
		c.Next()
	})
	r.Use(IdempotencyMiddleware())
	r.POST("/deposit", func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	return r
}

func postWithKey(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/deposit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyMiddleware_NoHeaderPassthrough(t *testing.T) {
	setupRedis(t)
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusCreated)

	postWithKey(r, "", `{}`)
	postWithKey(r, "", `{}`)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_ReplaysStoredResponse(t *testing.T) {
	srv := setupRedis(t)
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusCreated)

	first := postWithKey(r, "key-1", `{"txHash":"0x1"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.True(t, srv.Exists("idempotency:user-1:key-1"))
	assert.Greater(t, srv.TTL("idempotency:user-1:key-1"), LockDuration)

	second := postWithKey(r, "key-1", `{"txHash":"0x1"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyMiddleware_KeyReusedForDifferentBody(t *testing.T) {
	setupRedis(t)
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusOK)

	postWithKey(r, "key-1", `{"txHash":"0x1"}`)
	w := postWithKey(r, "key-1", `{"txHash":"0x2"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), CodeIdempotencyMismatch)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyMiddleware_ProcessingConflict(t *testing.T) {
	srv := setupRedis(t)
	require.NoError(t, srv.Set("idempotency:user-1:key-1", processingMarker))
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusOK)

	w := postWithKey(r, "key-1", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), CodeIdempotencyConflict)
	assert.Zero(t, calls)
}

func TestIdempotencyMiddleware_FailureReleasesKey(t *testing.T) {
	srv := setupRedis(t)
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusServiceUnavailable)

	postWithKey(r, "key-1", `{}`)
	assert.False(t, srv.Exists("idempotency:user-1:key-1"))

	postWithKey(r, "key-1", `{}`)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_StoreErrorPassthrough(t *testing.T) {
	origGet := redisGet
	t.Cleanup(func() { redisGet = origGet })
	redisGet = func(context.Context, string) (string, error) { return "", errors.New("dial tcp: refused") }

	calls := 0
	r := newIdempotentRouter(&calls, http.StatusAccepted)
	w := postWithKey(r, "key-1", `{}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyMiddleware_LockNotAcquired(t *testing.T) {
	setupRedis(t)
	origSetNX := redisSetNX
	t.Cleanup(func() { redisSetNX = origSetNX })
	redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) { return false, nil }

	calls := 0
	r := newIdempotentRouter(&calls, http.StatusOK)
	w := postWithKey(r, "key-1", `{}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, calls)
}

func TestIdempotencyMiddleware_LockStoreErrorPassthrough(t *testing.T) {
	srv := setupRedis(t)
	origSetNX := redisSetNX
	t.Cleanup(func() { redisSetNX = origSetNX })
	redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) {
		return false, errors.New("i/o timeout")
	}

	calls := 0
	r := newIdempotentRouter(&calls, http.StatusCreated)
	w := postWithKey(r, "key-1", `{}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
	assert.False(t, srv.Exists("idempotency:user-1:key-1"))
}

func TestIdempotencyMiddleware_CorruptStoredValue(t *testing.T) {
	srv := setupRedis(t)
	require.NoError(t, srv.Set("idempotency:user-1:key-1", "{not json"))
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusOK)

	w := postWithKey(r, "key-1", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, calls)
}
