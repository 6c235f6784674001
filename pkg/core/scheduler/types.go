package scheduler

import (
	"time"

	"github.com/LENAX/health-graph/pkg/core/probe"
)

// RecordState 评估记录状态
type RecordState int32

const (
	StatePending    RecordState = iota // 等待依赖完成
	StateInProgress                    // 正在探测
	StateResolved                      // 已得出终态（每个组件每次运行恰好一次）
)

// EvaluationRecord 单个组件在一次评估运行中的瞬态记录
// 记录集归属于唯一一次 Evaluator 运行，不跨请求共享
type EvaluationRecord struct {
	ComponentID string       // 组件ID
	State       RecordState  // 当前状态
	Status      probe.Status // 终态状态（State==StateResolved 时有效）
	StartedAt   time.Time    // 探测开始时间
	ResolvedAt  time.Time    // 终态确定时间
}

// StatusMap 一次评估运行的结果：组件ID -> 终态状态
// 运行结束后不可变，所有权移交调用方
type StatusMap map[string]probe.Status

// AllHealthy 是否全部组件健康
func (m StatusMap) AllHealthy() bool {
	for _, status := range m {
		if status != probe.StatusHealthy {
			return false
		}
	}
	return true
}

// EventSink 组件评估生命周期事件接收器（可选协作方）
// 由实时事件总线实现，nil 时调度器不产生事件
type EventSink interface {
	// OnComponentStarted 组件开始探测
	OnComponentStarted(componentID string)
	// OnComponentResolved 组件得出终态
	OnComponentResolved(componentID string, status probe.Status)
}
