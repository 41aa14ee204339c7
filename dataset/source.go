package dataset

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/wyfcoding/rectcount/geometry"
	"github.com/wyfcoding/rectcount/retry"
	"github.com/wyfcoding/rectcount/storage"
	"github.com/wyfcoding/rectcount/xerrors"
)

// ObjectScheme 标识对象存储中的数据源，例如 minio://rects/2024.json。
const ObjectScheme = "minio://"

// Source 是可打开读取的数据集来源。
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name 用于日志与错误信息，同时用于推断格式。
	Name() string
}

// FileSource 本地文件数据源。
type FileSource struct {
	Path string
}

func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s FileSource) Name() string { return s.Path }

// ObjectSource 对象存储数据源。
type ObjectSource struct {
	Store  storage.Storage
	Object string
}

func (s ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.Store == nil {
		return nil, xerrors.ErrSourceUnavailable.Derive("object source %q has no storage configured", s.Object)
	}
	return s.Store.Download(ctx, s.Object)
}

func (s ObjectSource) Name() string { return ObjectScheme + s.Object }

// ParseSource 将配置中的来源字符串解析为 Source。
// minio:// 前缀的来源需要 store 非空。
func ParseSource(location string, store storage.Storage) Source {
	if object, ok := strings.CutPrefix(location, ObjectScheme); ok {
		return ObjectSource{Store: store, Object: object}
	}
	return FileSource{Path: location}
}

// OpenRetryPolicy 打开数据源时的重试策略，对象存储的网络抖动会被重试。
var OpenRetryPolicy = retry.DefaultPolicy()

func isNotFound(err error) bool {
	xe, ok := xerrors.FromError(err)
	return ok && xe.Type == xerrors.ErrNotFound
}

// transient 业务错误、缺失的文件、被取消的请求不重试。
func transient(err error) bool {
	if _, ok := xerrors.FromError(err); ok || errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Load 读取并解码数据集。format 为空时按来源名称的扩展名推断。
func Load(ctx context.Context, src Source, format Format) ([]geometry.Rectangle, error) {
	if format == "" {
		f, err := FormatFromPath(src.Name())
		if err != nil {
			return nil, err
		}
		format = f
	}

	start := time.Now()
	var rc io.ReadCloser
	err := retry.Do(ctx, OpenRetryPolicy, func(ctx context.Context) error {
		var openErr error
		rc, openErr = src.Open(ctx)
		return openErr
	}, transient)
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, xerrors.ErrSourceUnavailable.Derive("open %s", src.Name()).WithCause(err)
	}
	defer rc.Close()

	rects, err := Decode(rc, format)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "dataset loaded", "source", src.Name(), "format", format, "rectangles", len(rects), "duration", time.Since(start))
	return rects, nil
}

// Publish 将矩形集合编码后上传到对象存储。
func Publish(ctx context.Context, store storage.Storage, object string, rects []geometry.Rectangle, format Format) error {
	var buf strings.Builder
	if err := Encode(&buf, rects, format); err != nil {
		return err
	}
	body := buf.String()
	if err := store.Upload(ctx, object, strings.NewReader(body), int64(len(body)), format.ContentType()); err != nil {
		return xerrors.WrapInternal(err, "publish dataset "+object)
	}
	return nil
}
