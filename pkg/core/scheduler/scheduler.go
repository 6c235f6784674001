// Package scheduler 实现依赖有序的并发评估器（本系统的核心）
//
// 不变式：
//   - 每个组件每次运行恰好被探测一次（菱形依赖不会重复探测）
//   - 组件的探测必须在其全部依赖得出终态之后才能开始
//   - 相互独立的组件可以并发探测，并发数受 Concurrency 上限约束
//   - 依赖失败不阻断依赖方：依赖方仍然被探测并获得自己的状态
//
// 实现采用显式的就绪队列（channel）+ 固定Worker池，不使用递归遍历，
// 病态深度的图不会耗尽调用栈；每个组件的剩余依赖计数归零时恰好入队一次，
// 对应记录仅由取走它的Worker写入（单写者），完成信号通过计数传递，从不轮询。
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LENAX/health-graph/pkg/core/graph"
	"github.com/LENAX/health-graph/pkg/core/probe"
)

const (
	defaultConcurrency = 10   // 默认并发上限
	maxConcurrency     = 1000 // 并发上限的上限，保护被探测的下游系统
)

// Options 评估选项（对外导出）
type Options struct {
	Concurrency int       // 同时在途的探测数量上限，<=0 时使用默认值
	EventSink   EventSink // 可选的生命周期事件接收器
}

// Evaluator 依赖评估器（对外导出）
// 每个评估请求构建一个独立实例，持有本次运行的记录集，不跨请求共享
type Evaluator struct {
	graph       *graph.Graph
	probe       probe.Probe
	concurrency int
	sink        EventSink

	records   map[string]*EvaluationRecord
	remaining map[string]*atomic.Int32 // 组件ID -> 未完成依赖计数
	wg        sync.WaitGroup
	readyCh   chan string
}

// New 创建评估器实例
func New(g *graph.Graph, p probe.Probe, opts Options) *Evaluator {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency
	}

	e := &Evaluator{
		graph:       g,
		probe:       p,
		concurrency: concurrency,
		sink:        opts.EventSink,
		records:     make(map[string]*EvaluationRecord, g.Size()),
		remaining:   make(map[string]*atomic.Int32, g.Size()),
		// 缓冲区容纳全部组件，入队永不阻塞
		readyCh: make(chan string, g.Size()),
	}

	for _, id := range g.Components() {
		e.records[id] = &EvaluationRecord{ComponentID: id, State: StatePending}
		counter := &atomic.Int32{}
		counter.Store(int32(len(g.Dependencies(id))))
		e.remaining[id] = counter
	}

	return e
}

// Run 执行评估，返回覆盖全部组件的状态表（对外导出）
//
// 取消语义：ctx 取消后，尚未开始探测的组件标记为 Unknown，
// 已得出终态的组件保留其状态；返回的状态表始终覆盖图中全部组件。
// 探测层面的失败由探测器折算为 Failed，本方法不会因此返回错误。
func (e *Evaluator) Run(ctx context.Context) StatusMap {
	// 1. 无依赖的根组件直接就绪（Components 已升序，平局时顺序稳定）
	for _, id := range e.graph.Components() {
		if e.remaining[id].Load() == 0 {
			e.readyCh <- id
		}
	}

	// 2. 启动Worker池，数量受并发上限约束
	workers := e.concurrency
	if size := e.graph.Size(); workers > size {
		workers = size
	}
	e.wg.Add(e.graph.Size())
	for i := 0; i < workers; i++ {
		go e.worker(ctx)
	}

	// 3. 等待全部组件得出终态后关闭就绪队列，让Worker退出
	e.wg.Wait()
	close(e.readyCh)

	// 4. 汇总结果（此时所有写入均已完成，无需加锁）
	statuses := make(StatusMap, len(e.records))
	for id, record := range e.records {
		statuses[id] = record.Status
	}
	return statuses
}

// worker 单个并发Worker的处理循环
// 从就绪队列取走组件即成为该组件记录的唯一写入者
func (e *Evaluator) worker(ctx context.Context) {
	for id := range e.readyCh {
		record := e.records[id]

		if ctx.Err() != nil {
			// 已取消：不再探测，标记为 Unknown 并继续级联，保证队列排空
			e.resolve(record, probe.StatusUnknown)
			continue
		}

		record.State = StateInProgress
		record.StartedAt = time.Now()
		if e.sink != nil {
			e.sink.OnComponentStarted(id)
		}

		// 探测器契约保证：内部错误折算为 Failed，取消返回 Unknown
		status := e.probe.Check(ctx, id)
		e.resolve(record, status)
	}
}

// resolve 写入组件终态并级联解锁其依赖方
// 依赖方的剩余依赖计数归零时恰好入队一次（入队即唯一），
// 无论本组件成功还是失败都会解锁依赖方（失败不阻断策略）
func (e *Evaluator) resolve(record *EvaluationRecord, status probe.Status) {
	record.Status = status
	record.ResolvedAt = time.Now()
	record.State = StateResolved

	if e.sink != nil {
		e.sink.OnComponentResolved(record.ComponentID, status)
	}

	for _, dependentID := range e.graph.Dependents(record.ComponentID) {
		if e.remaining[dependentID].Add(-1) == 0 {
			e.readyCh <- dependentID
		}
	}

	e.wg.Done()
}

// Snapshot 返回本次运行记录集的只读副本（供聚合器和测试使用）
// 必须在 Run 返回后调用
func (e *Evaluator) Snapshot() map[string]EvaluationRecord {
	snapshot := make(map[string]EvaluationRecord, len(e.records))
	for id, record := range e.records {
		snapshot[id] = *record
	}
	return snapshot
}

// Evaluate 一次性评估入口（对外导出的便捷方法）
func Evaluate(ctx context.Context, g *graph.Graph, p probe.Probe, opts Options) StatusMap {
	return New(g, p, opts).Run(ctx)
}
