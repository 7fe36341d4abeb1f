package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/ping", ok)
	r.POST("/echo", func(c *gin.Context) {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		c.String(http.StatusOK, buf.String())
	})
	r.GET("/report/delays", ok)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are counted separately")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"), "a new window resets the count")
}

func TestRateLimiter_DisabledWhenLimitNotPositive(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("a"))
	}
}

func TestRateLimiter_SweepsExpiredWindows(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	now = now.Add(2 * time.Minute)
	rl.Allow("c")

	assert.Len(t, rl.windows, 1)
}

func TestRateLimit_Middleware(t *testing.T) {
	r := newRouter(RateLimit(NewRateLimiter(1, time.Minute)))

	w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestEndpointRateLimiter_OnlyConfiguredRoutes(t *testing.T) {
	erl := NewEndpointRateLimiter()
	erl.AddEndpoint("/report/delays", 1, time.Minute)
	r := newRouter(erl.Middleware())

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/report/delays", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodGet, "/report/delays", nil)).Code)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
}

func TestTraceID(t *testing.T) {
	var seenCtx, seenGin string
	r := gin.New()
	r.Use(TraceID())
	r.GET("/ping", func(c *gin.Context) {
		seenCtx = logger.TraceIDFromContext(c.Request.Context())
		seenGin = GetTraceID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceIDHeader, "abc-123")
	w := do(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "abc-123", seenCtx)
	assert.Equal(t, "abc-123", seenGin)

	w = do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(TraceIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, seenCtx)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceIDHeader, strings.Repeat("x", maxTraceIDLen+1))
	w = do(r, req)
	assert.Len(t, w.Header().Get(TraceIDHeader), 36, "oversized ids are replaced")
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.CORSConfig
		origin     string
		wantOrigin string
	}{
		{name: "wildcard echoes origin", origin: "https://app.example", wantOrigin: "https://app.example"},
		{name: "wildcard without origin", wantOrigin: "*"},
		{name: "allowed origin", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.example"}}, origin: "https://a.example", wantOrigin: "https://a.example"},
		{name: "rejected origin", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.example"}}, origin: "https://b.example", wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(CORS(CORSConfigFrom(tt.cfg)))
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := do(r, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), TraceIDHeader)
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := newRouter(CORS(DefaultCORSConfig()))
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example")

	w := do(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestSecurityHeaders(t *testing.T) {
	w := do(newRouter(SecurityHeaders()), httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, contentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
}

func TestRequestSizeLimit(t *testing.T) {
	r := newRouter(RequestSizeLimit(8))

	w := do(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "small", w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("far too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	unlimited := newRouter(RequestSizeLimit(0))
	w = do(unlimited, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("far too large")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger_IncludesTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	r := newRouter(TraceID(), RequestLogger())
	req := httptest.NewRequest(http.MethodGet, "/ping?x=1", nil)
	req.Header.Set(TraceIDHeader, "trace-log")
	do(r, req)

	out := buf.String()
	assert.Contains(t, out, "trace-log")
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "/ping")
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	m := metrics.New()
	r := newRouter(Metrics(m))

	do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	do(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	count, err := testutil.GatherAndCount(m.Registry(), "pricing_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, logrus.ErrorLevel, requestLevel("/predict", http.StatusInternalServerError))
	assert.Equal(t, logrus.WarnLevel, requestLevel("/predict", http.StatusUnprocessableEntity))
	assert.Equal(t, logrus.InfoLevel, requestLevel("/predict", http.StatusOK))
	assert.Equal(t, logrus.DebugLevel, requestLevel("/health", http.StatusOK))
	assert.Equal(t, logrus.ErrorLevel, requestLevel("/health/ready", http.StatusServiceUnavailable))
}
