package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/LENAX/health-graph/pkg/core/graph"
	"github.com/LENAX/health-graph/pkg/core/report"
)

// SVG布局常量
const (
	svgNodeWidth  = 140
	svgNodeHeight = 44
	svgRowGap     = 90  // 层级之间的垂直间距
	svgColGap     = 40  // 同层节点之间的水平间距
	svgMargin     = 40  // 画布边距
	svgCorner     = 6   // 节点圆角
)

type nodePos struct {
	x, y int // 节点左上角坐标
}

// SVG 按拓扑层级渲染依赖图（对外导出）
// 每一层一行，节点按状态着色，边从依赖指向依赖方；
// 布局只依赖拓扑层级，不做通用图布局
func SVG(g *graph.Graph, rep *report.Report) ([]byte, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("渲染失败: %w", err)
	}

	// 1. 计算画布尺寸与节点位置
	maxCols := 0
	for _, level := range order.Levels {
		if len(level) > maxCols {
			maxCols = len(level)
		}
	}
	width := 2*svgMargin + maxCols*svgNodeWidth + (maxCols-1)*svgColGap
	height := 2*svgMargin + len(order.Levels)*svgNodeHeight + (len(order.Levels)-1)*svgRowGap

	positions := make(map[string]nodePos, g.Size())
	for row, level := range order.Levels {
		rowWidth := len(level)*svgNodeWidth + (len(level)-1)*svgColGap
		startX := (width - rowWidth) / 2
		for col, id := range level {
			positions[id] = nodePos{
				x: startX + col*(svgNodeWidth+svgColGap),
				y: svgMargin + row*(svgNodeHeight+svgRowGap),
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>`)
	b.WriteString(`<defs><marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="#555"/></marker></defs>`)

	// 2. 先画边（依赖底边中点 -> 依赖方顶边中点），避免遮挡节点
	for _, id := range g.Components() {
		to := positions[id]
		for _, depID := range g.Dependencies(id) {
			from := positions[depID]
			fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#555" stroke-width="1.5" marker-end="url(#arrow)"/>`,
				from.x+svgNodeWidth/2, from.y+svgNodeHeight,
				to.x+svgNodeWidth/2, to.y)
		}
	}

	// 3. 画节点与标签
	for _, id := range g.Components() {
		pos := positions[id]
		status := rep.StatusOf(id)
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" rx="%d" fill="%s"/>`,
			pos.x, pos.y, svgNodeWidth, svgNodeHeight, svgCorner, statusColor(status))
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" font-size="13" fill="white">%s</text>`,
			pos.x+svgNodeWidth/2, pos.y+svgNodeHeight/2-3, html.EscapeString(id))
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" font-size="10" fill="white">%s</text>`,
			pos.x+svgNodeWidth/2, pos.y+svgNodeHeight/2+12, status)
	}

	b.WriteString("</svg>")
	return []byte(b.String()), nil
}
