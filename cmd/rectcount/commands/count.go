package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wyfcoding/rectcount/config"
	"github.com/wyfcoding/rectcount/dataset"
	"github.com/wyfcoding/rectcount/geometry"
	"github.com/wyfcoding/rectcount/logging"
	"github.com/wyfcoding/rectcount/rectindex"
	"github.com/wyfcoding/rectcount/storage"
)

// ErrNoInput 未指定数据集。
var ErrNoInput = errors.New("dataset is required (use --input)")

// ErrOddCoordinates 坐标参数必须成对出现。
var ErrOddCoordinates = errors.New("points must be given as X Y pairs")

type countOptions struct {
	input    string
	strategy string
	format   string
	config   string
	workers  int
}

// NewCountCommand 创建 count 子命令。
func NewCountCommand() *cobra.Command {
	var opts countOptions

	cmd := &cobra.Command{
		Use:   "count X Y [X Y ...]",
		Short: "Count rectangles containing each given point",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.input == "" {
				return ErrNoInput
			}
			initCLILogging("count")
			points, err := parsePoints(args)
			if err != nil {
				return err
			}
			return runCount(cmd.Context(), cmd.OutOrStdout(), opts, points)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "dataset path or minio://<object>")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", string(rectindex.StrategyPersistent), "persistent, table or linear")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "dataset format (json, csv, yaml); inferred from the extension when empty")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "config file providing [minio] settings for minio:// inputs")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "batch query workers, 0 means GOMAXPROCS")

	return cmd
}

func parsePoints(args []string) ([]geometry.Point, error) {
	if len(args)%2 != 0 {
		return nil, ErrOddCoordinates
	}
	points := make([]geometry.Point, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		x, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, fmt.Errorf("point %d: bad x %q: %w", i/2, args[i], err)
		}
		y, err := strconv.Atoi(args[i+1])
		if err != nil {
			return nil, fmt.Errorf("point %d: bad y %q: %w", i/2, args[i+1], err)
		}
		points = append(points, geometry.Pt(x, y))
	}
	return points, nil
}

func runCount(ctx context.Context, out io.Writer, opts countOptions, points []geometry.Point) error {
	if ctx == nil {
		ctx = context.Background()
	}
	strategy, err := rectindex.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}
	format, err := parseOptionalFormat(opts.format)
	if err != nil {
		return err
	}
	store, err := storeFor(opts.input, opts.config)
	if err != nil {
		return err
	}

	rects, err := dataset.Load(ctx, dataset.ParseSource(opts.input, store), format)
	if err != nil {
		return err
	}
	counter, err := rectindex.New(strategy, rects)
	if err != nil {
		return err
	}
	counts, err := rectindex.CountBatch(ctx, counter, points, opts.workers)
	if err != nil {
		return err
	}
	for i, p := range points {
		if _, err := fmt.Fprintf(out, "%d %d %d\n", p.X, p.Y, counts[i]); err != nil {
			return err
		}
	}
	return nil
}

// initCLILogging 命令行模式下只把告警以上的日志写到 stderr，stdout 留给结果。
func initCLILogging(module string) {
	logging.Init(logging.Config{Service: "rectcount", Module: module, Level: "warn", Output: os.Stderr})
}

func parseOptionalFormat(name string) (dataset.Format, error) {
	if name == "" {
		return "", nil
	}
	return dataset.ParseFormat(name)
}

// storeFor 仅在 location 指向对象存储时按配置文件创建 MinIO 客户端。
func storeFor(location, configPath string) (storage.Storage, error) {
	if !strings.HasPrefix(location, dataset.ObjectScheme) {
		return nil, nil
	}
	if configPath == "" {
		return nil, ErrNoConfig
	}
	var cfg config.Config
	if err := config.LoadFile(configPath, &cfg); err != nil {
		return nil, err
	}
	client, err := storage.NewMinIOClient(cfg.Minio)
	if err != nil {
		return nil, err
	}
	return client, nil
}
