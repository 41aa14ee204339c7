// Package main 是 rectcount 命令行入口。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wyfcoding/rectcount/cmd/rectcount/commands"
)

// 构建时通过 -ldflags "-X main.version=..." 注入。
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rectcount",
		Short: "Count how many rectangles contain a point",
		Long: `rectcount answers repeated point-in-rectangle counting queries.

Commands:
  serve     Build the index from the configured source and serve HTTP queries
  count     Count a handful of points against a local or object-store dataset
  generate  Write a random or nested rectangle dataset`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand(version))
	rootCmd.AddCommand(commands.NewCountCommand())
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "rectcount %s (commit: %s)\n", version, commit)
		},
	}
}
