package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wyfcoding/rectcount/xerrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, fn func(c *gin.Context)) (int, Body) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	fn(c)
	var body Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestSuccess(t *testing.T) {
	code, body := render(t, func(c *gin.Context) { Success(c, gin.H{"count": 2}) })
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "success", body.Msg)
	assert.Equal(t, map[string]any{"count": 2.0}, body.Data)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		bodyCode int
	}{
		{"xerrors", xerrors.ErrEmptyBatch.Derive("no points"), http.StatusBadRequest, xerrors.CodeEmptyBatch},
		{"wrapped xerrors", fmt.Errorf("handler: %w", xerrors.ErrIndexNotReady.Derive("x")), http.StatusServiceUnavailable, xerrors.CodeIndexNotReady},
		{"grpc status", status.Error(codes.ResourceExhausted, "slow down"), http.StatusTooManyRequests, http.StatusTooManyRequests},
		{"plain", errors.New("boom"), http.StatusInternalServerError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := render(t, func(c *gin.Context) { Error(c, tc.err) })
			assert.Equal(t, tc.status, code)
			assert.Equal(t, tc.bodyCode, body.Code)
			assert.NotEmpty(t, body.Msg)
		})
	}
}

func TestErrorWithStatus(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		ErrorWithStatus(c, http.StatusRequestEntityTooLarge, "request body too large", "limit 1MB")
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "limit 1MB", body.Detail)
}

func TestErrorCarriesTraceID(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xaa, 0xbb},
		SpanID:     trace.SpanID{0x01},
		TraceFlags: trace.FlagsSampled,
	})
	code, body := render(t, func(c *gin.Context) {
		req := httptest.NewRequest(http.MethodGet, "/v1/count", nil)
		c.Request = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
		Error(c, xerrors.ErrInvalidPoint.Derive("x is required"))
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, sc.TraceID().String(), body.TraceID)

	_, body = render(t, func(c *gin.Context) { Success(c, nil) })
	assert.Empty(t, body.TraceID)
}
