// Package commands 实现 rectcount 的子命令。
package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/wyfcoding/rectcount/app"
	"github.com/wyfcoding/rectcount/config"
)

const defaultConfigPath = "configs/rectcount/config.toml"

// ErrNoConfig 未指定配置文件。
var ErrNoConfig = errors.New("config file is required (use --config)")

// NewServeCommand 创建 serve 子命令。
func NewServeCommand(version string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the index and serve HTTP count queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				return ErrNoConfig
			}
			return runServe(cmd.Context(), configPath, version)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the TOML config file")

	return cmd
}

func runServe(ctx context.Context, path, version string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var cfg config.Config
	if err := config.Load(path, &cfg); err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version
	}

	application, _, err := app.NewBuilder(&cfg, version).WithHotReload().Build(ctx)
	if err != nil {
		return err
	}
	config.PrintWithMask(cfg)
	return application.Run(ctx)
}
