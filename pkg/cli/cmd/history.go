package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/health-graph/pkg/api/dto"
	"github.com/LENAX/health-graph/pkg/cli/output"
)

var (
	historyLimit  int
	historyOffset int
)

// historyCmd 评估历史命令
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查询评估历史",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fmt.Sprintf("%s/api/v1/evaluations?limit=%d&offset=%d", serverURL, historyLimit, historyOffset)
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("请求服务端失败: %w", err)
		}
		defer resp.Body.Close()

		var envelope dto.APIResponse[dto.HistoryResponse]
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("解析服务端响应失败: %w", err)
		}
		if envelope.Code != 0 {
			return fmt.Errorf("服务端返回错误: %s", envelope.Message)
		}

		if outputJSON {
			return output.PrintJSON(envelope.Data)
		}

		table := output.NewTable([]string{"ID", "Requested", "Duration", "Overall", "Components"})
		for _, item := range envelope.Data.Items {
			table.AddRow([]string{
				item.ID,
				item.RequestedAt.Format(time.RFC3339),
				fmt.Sprintf("%dms", item.DurationMs),
				item.Overall,
				fmt.Sprintf("%d", item.ComponentCount),
			})
		}
		table.Render()
		fmt.Printf("\n共 %d 条记录\n", envelope.Data.Total)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "返回条数上限")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "偏移量")
}
