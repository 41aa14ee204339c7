package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wyfcoding/rectcount/limiter"
	"github.com/wyfcoding/rectcount/metrics"
	"github.com/wyfcoding/rectcount/xerrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	engine := gin.New()
	engine.Use(Recovery(slog.New(slog.NewJSONHandler(&logs, nil))))
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	rec := serve(engine, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestLoggerLevels(t *testing.T) {
	var logs bytes.Buffer
	engine := gin.New()
	engine.Use(RequestID(), Logger(slog.New(slog.NewJSONHandler(&logs, nil)), "/healthz"))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, http.MethodGet, "/healthz", "")
	assert.Empty(t, logs.String())

	serve(engine, http.MethodGet, "/ok?x=1", "")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "x=1", entry["query"])
	assert.NotEmpty(t, entry["request_id"])

	logs.Reset()
	serve(engine, http.MethodGet, "/bad", "")
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := serve(engine, http.MethodGet, "/", "")
	generated := rec.Header().Get(HeaderXRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "upstream-1")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", rec.Header().Get(HeaderXRequestID))
}

func TestRateLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimit(limiter.NewLocalLimiter(rate.Limit(0.001), 1)))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/", "").Code)
	rec := serve(engine, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many requests")

	open := gin.New()
	open.Use(RateLimit(nil))
	open.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(open, http.MethodGet, "/", "").Code)
}

func TestConcurrencyLimit(t *testing.T) {
	l := limiter.NewSemaphoreLimiter(1)
	require.True(t, l.TryAcquire())

	engine := gin.New()
	engine.Use(ConcurrencyLimit(l))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusServiceUnavailable, serve(engine, http.MethodGet, "/", "").Code)
	l.Release()
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/", "").Code)
	assert.Zero(t, l.InUse())
}

func TestMaxBodyBytes(t *testing.T) {
	engine := gin.New()
	engine.Use(MaxBodyBytes(func() int64 { return 8 }))
	engine.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(engine, http.MethodPost, "/", "0123456789").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/", "0123").Code)
}

func TestMaxBodyBytesFollowsLimit(t *testing.T) {
	var limit atomic.Int64
	limit.Store(4)
	engine := gin.New()
	engine.Use(MaxBodyBytes(limit.Load))
	engine.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(engine, http.MethodPost, "/", "0123456789").Code)
	limit.Store(16)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/", "0123456789").Code)
	limit.Store(0)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/", strings.Repeat("x", 1024)).Code)
}

func TestHTTPErrorHandler(t *testing.T) {
	engine := gin.New()
	engine.Use(HTTPErrorHandler())
	engine.GET("/", func(c *gin.Context) { _ = c.Error(xerrors.ErrInvalidPoint.Derive("x=abc")) })
	engine.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })

	rec := serve(engine, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "400106")

	assert.Equal(t, http.StatusInternalServerError, serve(engine, http.MethodGet, "/plain", "").Code)
}

func TestHTTPMetrics(t *testing.T) {
	m := metrics.NewMetrics("rectcount-test")
	engine := gin.New()
	engine.Use(HTTPMetrics(m, "/metrics"))
	engine.POST("/v1/count/batch", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	serve(engine, http.MethodPost, "/v1/count/batch", `{"points":[]}`)
	serve(engine, http.MethodGet, "/nowhere", "")

	body := serve(engine, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, body, `http_server_requests_total{method="POST",path="/v1/count/batch",status="200"} 1`)
	assert.Contains(t, body, `http_server_requests_total{method="GET",path="unknown",status="404"} 1`)
	assert.Contains(t, body, `http_server_request_size_bytes_count{method="POST",path="/v1/count/batch"} 1`)
	assert.NotContains(t, body, `path="/metrics"`)
}
