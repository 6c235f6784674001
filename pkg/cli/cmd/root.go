package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "healthgraph",
	Short: "Health Graph CLI - 依赖图健康评估命令行工具",
	Long: `Health Graph CLI 是一个用于评估组件依赖图健康状态的命令行工具。

支持的功能：
  - 提交依赖描述并执行评估（本地或通过服务端）
  - 查询评估历史
  - 渲染依赖图为SVG

使用示例：
  # 通过服务端评估依赖图
  healthgraph evaluate graph.json

  # 本地评估（不经过服务端，使用HTTP探测）
  healthgraph evaluate graph.json --local --probe-url http://probe.example.com

  # 查询评估历史
  healthgraph history

  # 渲染依赖图
  healthgraph render graph.json -o graph.svg`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Health Graph服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}
