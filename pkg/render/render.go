// Package render 把依赖图和评估报告渲染为可视化产物（协作方，非核心）
//
// 渲染失败不影响也不作废已经计算完成的报告
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/LENAX/health-graph/pkg/core/graph"
	"github.com/LENAX/health-graph/pkg/core/probe"
	"github.com/LENAX/health-graph/pkg/core/report"
)

// 状态颜色（与原系统保持一致：健康绿色、失败红色、未知灰色）
func statusColor(status probe.Status) string {
	switch status {
	case probe.StatusHealthy:
		return "#2e8b57"
	case probe.StatusFailed:
		return "#d9534f"
	default:
		return "#9e9e9e"
	}
}

// DOT 生成 Graphviz DOT 源码（对外导出）
// 边方向：依赖 -> 依赖方
func DOT(g *graph.Graph, rep *report.Report) string {
	var b strings.Builder
	b.WriteString("digraph health {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [shape=box, style=filled, fontcolor=white];\n")

	for _, id := range g.Components() {
		status := rep.StatusOf(id)
		fmt.Fprintf(&b, "  %q [fillcolor=%q, label=\"%s\\n%s\"];\n", id, statusColor(status), id, status)
	}
	for _, id := range g.Components() {
		for _, depID := range g.Dependencies(id) {
			fmt.Fprintf(&b, "  %q -> %q;\n", depID, id)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// HTMLTable 生成报告的HTML表格片段（对外导出）
// 输出与原系统的 health_table 对齐：组件 + 状态两列
func HTMLTable(rep *report.Report) string {
	var b strings.Builder
	b.WriteString("<table border='1'><tr><th>Component</th><th>Status</th></tr>")
	for _, entry := range rep.Entries {
		fmt.Fprintf(&b, "<tr><td>%s</td><td style='color:%s'>%s</td></tr>",
			html.EscapeString(entry.ComponentID), statusColor(entry.Status), entry.Status)
	}
	b.WriteString("</table>")
	return b.String()
}
