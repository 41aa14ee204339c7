package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/rectcount/config"
	"github.com/wyfcoding/rectcount/dataset"
)

type fakeServer struct {
	mu       sync.Mutex
	started  chan struct{}
	stopped  int
	startErr error
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{})}
}

func (s *fakeServer) Start(ctx context.Context) error {
	close(s.started)
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := newFakeServer()
	var order []int
	a := New("test", discardLogger(),
		WithServer(srv),
		WithCleanup(func() { order = append(order, 1) }),
		WithCleanup(func() { order = append(order, 2) }),
		WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, srv.stopped)
	assert.Equal(t, []int{2, 1}, order)
}

func TestRunReturnsServerError(t *testing.T) {
	srv := newFakeServer()
	srv.startErr = errors.New("listen: address in use")
	cleaned := false
	a := New("test", discardLogger(), WithServer(srv), WithCleanup(func() { cleaned = true }))

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
	assert.True(t, cleaned)
}

func TestBuilderBuild(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "rects.json")
	f, err := os.Create(source)
	require.NoError(t, err)
	require.NoError(t, dataset.Encode(f, dataset.Nested(3), dataset.FormatJSON))
	require.NoError(t, f.Close())

	var cfg config.Config
	cfg.Server.Name = "rectcount-test"
	cfg.Server.Environment = "test"
	cfg.Server.HTTP.Port = 18080
	cfg.Log.Level = "error"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"
	cfg.Index.Source = source
	cfg.Index.Strategy = "persistent"
	cfg.Cache.Enabled = true
	cfg.Cache.LifeWindow = time.Minute
	cfg.Cache.MaxMB = 8

	a, comps, err := NewBuilder(&cfg, "v0.0.0-test").Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)
	require.True(t, comps.Service.Ready())

	info, err := comps.Service.Info()
	require.NoError(t, err)
	assert.Equal(t, 3, info.Rectangles)

	w := httptest.NewRecorder()
	comps.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/count?x=15&y=15", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = httptest.NewRecorder()
	comps.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rectindex_rectangles 3")
}

func TestBuilderBuildMissingSource(t *testing.T) {
	var cfg config.Config
	cfg.Server.Name = "rectcount-test"
	cfg.Server.HTTP.Port = 18081
	cfg.Log.Level = "error"
	cfg.Index.Source = filepath.Join(t.TempDir(), "absent.json")

	_, _, err := NewBuilder(&cfg, "test").Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build initial index")
}

func TestBuilderReleasesOnFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
	require.NoError(t, l.Close())

	var cfg config.Config
	cfg.Server.Name = "rectcount-test"
	cfg.Server.HTTP.Port = 18082
	cfg.Log.Level = "error"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = port
	cfg.Metrics.Path = "/metrics"
	cfg.Cache.Enabled = true
	cfg.Cache.LifeWindow = time.Minute
	cfg.Cache.MaxMB = 8
	cfg.Index.Source = filepath.Join(t.TempDir(), "absent.json")

	_, _, err = NewBuilder(&cfg, "test").Build(context.Background())
	require.Error(t, err)

	// 独立指标端口随构建失败一起关闭，端口可以被重新占用。
	assert.Eventually(t, func() bool {
		l, err := net.Listen("tcp", ":"+port)
		if err != nil {
			return false
		}
		_ = l.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}

func TestBuilderBodyCapFollowsMaxBatch(t *testing.T) {
	source := filepath.Join(t.TempDir(), "rects.json")
	f, err := os.Create(source)
	require.NoError(t, err)
	require.NoError(t, dataset.Encode(f, dataset.Nested(3), dataset.FormatJSON))
	require.NoError(t, f.Close())

	var cfg config.Config
	cfg.Server.Name = "rectcount-test"
	cfg.Server.HTTP.Port = 18083
	cfg.Log.Level = "error"
	cfg.Index.Source = source
	cfg.Index.MaxBatch = 2

	_, comps, err := NewBuilder(&cfg, "test").Build(context.Background())
	require.NoError(t, err)

	points := make([]string, 100)
	for i := range points {
		points[i] = fmt.Sprintf(`{"x":%d,"y":%d}`, i, i)
	}
	body := `{"points":[` + strings.Join(points, ",") + `]}`
	post := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/count/batch", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		comps.Engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusRequestEntityTooLarge, post())

	cfg.Index.MaxBatch = 200
	require.NoError(t, comps.Service.UpdateConfig(context.Background(), cfg.Index))
	assert.Equal(t, http.StatusOK, post())
}
