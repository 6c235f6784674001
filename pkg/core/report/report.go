// Package report 把调度器输出聚合为确定有序的评估报告
package report

import (
	"github.com/LENAX/health-graph/pkg/core/graph"
	"github.com/LENAX/health-graph/pkg/core/probe"
	"github.com/LENAX/health-graph/pkg/core/scheduler"
)

// Overall 整体健康状态（对外导出）
type Overall string

const (
	OverallHealthy   Overall = "Healthy"   // 全部组件健康
	OverallDegraded  Overall = "Degraded"  // 存在 Unknown 组件（评估被取消），但无失败
	OverallUnhealthy Overall = "Unhealthy" // 存在失败组件
)

// Entry 报告条目：单个组件及其终态
type Entry struct {
	ComponentID string       `json:"component_id"` // 组件ID
	Status      probe.Status `json:"status"`       // 终态状态
}

// Report 评估报告（对外导出）
// 条目顺序确定：拓扑层级序，层内按组件ID升序；
// 相同的图与确定性的探测结果在多次运行间产生相同的报告
type Report struct {
	Overall Overall `json:"overall"` // 整体状态
	Entries []Entry `json:"entries"` // 有序的组件状态列表
}

// Aggregate 聚合状态表为报告（对外导出）
// 纯函数：不触发探测，无任何副作用
func Aggregate(order *graph.TopologicalOrder, statuses scheduler.StatusMap) *Report {
	entries := make([]Entry, 0, len(statuses))
	for _, id := range order.Flatten() {
		entries = append(entries, Entry{ComponentID: id, Status: statuses[id]})
	}

	overall := OverallHealthy
	for _, entry := range entries {
		switch entry.Status {
		case probe.StatusFailed:
			// 存在失败即整体不健康，优先级最高
			return &Report{Overall: OverallUnhealthy, Entries: entries}
		case probe.StatusUnknown:
			overall = OverallDegraded
		}
	}

	return &Report{Overall: overall, Entries: entries}
}

// StatusOf 查询指定组件的状态，未收录时返回 Unknown
func (r *Report) StatusOf(componentID string) probe.Status {
	for _, entry := range r.Entries {
		if entry.ComponentID == componentID {
			return entry.Status
		}
	}
	return probe.StatusUnknown
}
