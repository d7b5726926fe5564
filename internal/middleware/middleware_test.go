package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func protected(roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(), Recovery())
	g := r.Group("/v1", JWTAuth(secret))
	g.GET("/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetClaims(c).Username})
	})
	g.GET("/restricted", RequireRole(roles...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/fail", func(c *gin.Context) { _ = c.Error(errors.New("db down")) })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := protected(RoleSupervisor, RoleAdmin)

	t.Run("missing token", func(t *testing.T) {
		w := do(r, http.MethodGet, "/v1/open", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		tok, err := IssueToken("other-secret", "ana", RoleOperator, time.Hour)
		require.NoError(t, err)
		w := do(r, http.MethodGet, "/v1/open", tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := IssueToken(secret, "ana", RoleOperator, -time.Minute)
		require.NoError(t, err)
		w := do(r, http.MethodGet, "/v1/open", tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid", func(t *testing.T) {
		tok, err := IssueToken(secret, "ana", RoleOperator, time.Hour)
		require.NoError(t, err)
		w := do(r, http.MethodGet, "/v1/open", tok)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"ana"}`, w.Body.String())
	})

	t.Run("websocket query token", func(t *testing.T) {
		tok, err := IssueToken(secret, "ana", RoleOperator, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/v1/open?token="+tok, nil)
		req.Header.Set("Upgrade", "websocket")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("query token ignored on plain requests", func(t *testing.T) {
		tok, err := IssueToken(secret, "ana", RoleOperator, time.Hour)
		require.NoError(t, err)
		w := do(r, http.MethodGet, "/v1/open?token="+tok, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	r := protected(RoleSupervisor, RoleAdmin)

	op, err := IssueToken(secret, "ana", RoleOperator, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/v1/restricted", op).Code)

	sup, err := IssueToken(secret, "beto", RoleSupervisor, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/v1/restricted", sup).Code)
}

func TestIssueToken_UnknownRole(t *testing.T) {
	_, err := IssueToken(secret, "ana", "cashier", time.Hour)
	assert.Error(t, err)
}

func TestRecoveryAndErrorHandler(t *testing.T) {
	r := protected()

	w := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"internal server error"}`, w.Body.String())

	w = do(r, http.MethodGet, "/fail", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestLogger_AttachesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/", func(c *gin.Context) {
		RequestLogger(c).Info().Msg("inside handler")
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"inside handler"`)
	assert.Contains(t, lines[0], `"request_id":"req-42"`)
	assert.Contains(t, lines[1], `"status":200`)
}

func TestRequestID(t *testing.T) {
	r := protected()

	w := do(r, http.MethodGet, "/fail", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 2})
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Equal(t, 0, rl.purge(time.Now()))
	assert.Equal(t, 1, rl.purge(time.Now().Add(time.Hour)))
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://desk.local"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://desk.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://desk.local", w.Header().Get("Access-Control-Allow-Origin"))
}
