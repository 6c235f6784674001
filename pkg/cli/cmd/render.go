package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LENAX/health-graph/pkg/core/graph"
	"github.com/LENAX/health-graph/pkg/core/report"
	"github.com/LENAX/health-graph/pkg/render"
)

var (
	renderOutput string
	renderDOT    bool
)

// renderCmd 渲染命令
var renderCmd = &cobra.Command{
	Use:   "render <graph-file>",
	Short: "把依赖描述渲染为SVG或DOT（不执行评估，状态显示为Unknown）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, err := loadDescription(args[0])
		if err != nil {
			return err
		}

		g, err := graph.Build(description)
		if err != nil {
			return err
		}

		// 未评估时所有组件状态为Unknown
		empty := &report.Report{Overall: report.OverallDegraded}

		var data []byte
		if renderDOT {
			data = []byte(render.DOT(g, empty))
		} else {
			data, err = render.SVG(g, empty)
			if err != nil {
				return err
			}
		}

		if renderOutput == "" || renderOutput == "-" {
			fmt.Print(string(data))
			return nil
		}
		if err := os.WriteFile(renderOutput, data, 0o644); err != nil {
			return fmt.Errorf("写入输出文件失败: %w", err)
		}
		fmt.Printf("✅ 已写入 %s\n", renderOutput)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "输出文件路径（默认标准输出）")
	renderCmd.Flags().BoolVar(&renderDOT, "dot", false, "输出Graphviz DOT而非SVG")
}
