package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// 版本信息（构建时通过 -ldflags 注入）
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// versionCmd 版本命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Health Graph CLI v%s (%s)\n", Version, GitCommit)
	},
}
