package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LENAX/health-graph/pkg/api/dto"
	"github.com/LENAX/health-graph/pkg/cli/output"
	"github.com/LENAX/health-graph/pkg/core/engine"
	"github.com/LENAX/health-graph/pkg/core/probe"
)

var (
	evaluateConcurrency int
	evaluateLocal       bool
	evaluateProbeURL    string
	evaluateTimeout     time.Duration
)

// evaluateCmd 评估命令
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <graph-file>",
	Short: "提交依赖描述并执行健康评估",
	Long: `读取依赖描述文件（JSON或YAML，组件ID -> 依赖列表），
默认提交到服务端评估；--local 时在本进程内直接执行评估。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, err := loadDescription(args[0])
		if err != nil {
			return err
		}
		if evaluateLocal {
			return evaluateLocally(description)
		}
		return evaluateRemotely(description)
	},
}

func init() {
	evaluateCmd.Flags().IntVarP(&evaluateConcurrency, "concurrency", "c", 0, "并发探测上限（0使用服务端默认值）")
	evaluateCmd.Flags().BoolVar(&evaluateLocal, "local", false, "本地执行评估，不经过服务端")
	evaluateCmd.Flags().StringVar(&evaluateProbeURL, "probe-url", "", "本地评估时的HTTP探测基础地址（为空时所有组件视为Healthy）")
	evaluateCmd.Flags().DurationVar(&evaluateTimeout, "timeout", 60*time.Second, "评估超时")
}

// loadDescription 读取依赖描述文件（按扩展名识别JSON/YAML）
func loadDescription(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取依赖描述文件失败: %w", err)
	}

	description := make(map[string][]string)
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &description); err != nil {
			return nil, fmt.Errorf("解析YAML依赖描述失败: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &description); err != nil {
			return nil, fmt.Errorf("解析JSON依赖描述失败: %w", err)
		}
	}
	return description, nil
}

// evaluateLocally 本地执行评估
func evaluateLocally(description map[string][]string) error {
	var p probe.Probe
	if evaluateProbeURL != "" {
		p = probe.NewHTTPProbe(evaluateProbeURL, 5*time.Second)
	} else {
		p = &probe.StaticProbe{}
	}

	eng, err := engine.NewEngine(engine.Options{
		Probe:              p,
		DefaultConcurrency: 10,
		EvaluationTimeout:  evaluateTimeout,
	})
	if err != nil {
		return err
	}

	result, err := eng.Evaluate(context.Background(), description, evaluateConcurrency)
	if err != nil {
		return err
	}

	if outputJSON {
		return output.PrintJSON(result.Report)
	}
	printReport(string(result.Report.Overall), func(table *output.Table) {
		for _, entry := range result.Report.Entries {
			table.AddRow([]string{entry.ComponentID, string(entry.Status)})
		}
	})
	return nil
}

// evaluateRemotely 提交到服务端评估
func evaluateRemotely(description map[string][]string) error {
	reqBody, err := json.Marshal(dto.EvaluateRequest{
		Graph:       description,
		Concurrency: evaluateConcurrency,
	})
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	client := &http.Client{Timeout: evaluateTimeout}
	resp, err := client.Post(serverURL+"/api/v1/evaluations", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("请求服务端失败: %w", err)
	}
	defer resp.Body.Close()

	var envelope dto.APIResponse[dto.EvaluationResponse]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("解析服务端响应失败: %w", err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("服务端返回错误: %s", envelope.Message)
	}

	if outputJSON {
		return output.PrintJSON(envelope.Data)
	}
	fmt.Printf("评估ID: %s  耗时: %dms\n", envelope.Data.ID, envelope.Data.DurationMs)
	printReport(envelope.Data.Overall, func(table *output.Table) {
		for _, entry := range envelope.Data.Components {
			table.AddRow([]string{entry.ComponentID, string(entry.Status)})
		}
	})
	return nil
}

// printReport 打印报告表格与整体状态
func printReport(overall string, fill func(*output.Table)) {
	table := output.NewTable([]string{"Component", "Status"})
	fill(table)
	table.Render()
	fmt.Println()
	table2 := output.NewTable([]string{"Overall"})
	table2.AddRow([]string{overall})
	table2.Render()
}
