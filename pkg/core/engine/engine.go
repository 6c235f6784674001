// Package engine 把图构建、调度评估、结果聚合、历史持久化与事件发布
// 组装为对上层（API / 定时监控 / CLI）统一的评估入口
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/health-graph/pkg/core/graph"
	"github.com/LENAX/health-graph/pkg/core/probe"
	"github.com/LENAX/health-graph/pkg/core/realtime"
	"github.com/LENAX/health-graph/pkg/core/report"
	"github.com/LENAX/health-graph/pkg/core/scheduler"
	"github.com/LENAX/health-graph/pkg/storage"
)

// Options 引擎构建选项（对外导出）
type Options struct {
	Probe              probe.Probe              // 健康探测器（必填）
	Bus                *realtime.Bus            // 事件总线（可选）
	Repository         storage.ReportRepository // 评估历史仓储（可选）
	DefaultConcurrency int                      // 默认并发上限
	EvaluationTimeout  time.Duration            // 整次评估超时，<=0 表示不限制
}

// Engine 评估引擎（对外导出）
// 引擎自身无长生命周期状态：每次评估构建独立的图与调度器实例
type Engine struct {
	probe              probe.Probe
	bus                *realtime.Bus
	repo               storage.ReportRepository
	defaultConcurrency int
	evaluationTimeout  time.Duration
}

// EvaluationResult 一次评估的完整产出（对外导出）
type EvaluationResult struct {
	ID          string              // 评估ID（UUID）
	RequestedAt time.Time           // 请求时间
	Duration    time.Duration       // 评估耗时
	Graph       *graph.Graph        // 校验过的依赖图
	Order       *graph.TopologicalOrder
	Report      *report.Report      // 聚合后的报告
	Description map[string][]string // 原始依赖描述
}

// NewEngine 创建评估引擎
func NewEngine(opts Options) (*Engine, error) {
	if opts.Probe == nil {
		return nil, fmt.Errorf("必须提供健康探测器")
	}
	return &Engine{
		probe:              opts.Probe,
		bus:                opts.Bus,
		repo:               opts.Repository,
		defaultConcurrency: opts.DefaultConcurrency,
		evaluationTimeout:  opts.EvaluationTimeout,
	}, nil
}

// Evaluate 执行一次完整评估（对外导出）
// 结构性错误（未知依赖/循环）在任何并发工作开始前返回；
// 探测层面的失败体现在报告状态里，不会作为错误返回
func (e *Engine) Evaluate(ctx context.Context, description map[string][]string, concurrency int) (*EvaluationResult, error) {
	// 1. 构建并校验依赖图（循环/未知依赖在此被拒绝）
	g, err := graph.Build(description)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	evaluationID := uuid.NewString()
	requestedAt := time.Now()

	if e.evaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.evaluationTimeout)
		defer cancel()
	}

	// 2. 发布评估开始事件
	var sink scheduler.EventSink
	if e.bus != nil {
		if err := e.bus.Publish(realtime.NewEvent(realtime.EventEvaluationStarted, evaluationID)); err != nil {
			log.Printf("发布评估开始事件失败: ID=%s, Error=%v", evaluationID, err)
		}
		sink = e.bus.NewSink(evaluationID)
	}

	// 3. 调度评估
	if concurrency <= 0 {
		concurrency = e.defaultConcurrency
	}
	statuses := scheduler.Evaluate(ctx, g, e.probe, scheduler.Options{
		Concurrency: concurrency,
		EventSink:   sink,
	})

	// 4. 聚合报告
	rep := report.Aggregate(order, statuses)
	result := &EvaluationResult{
		ID:          evaluationID,
		RequestedAt: requestedAt,
		Duration:    time.Since(requestedAt),
		Graph:       g,
		Order:       order,
		Report:      rep,
		Description: description,
	}

	// 5. 持久化评估历史（失败只记录日志，不作废报告）
	if e.repo != nil {
		if err := e.persist(ctx, result); err != nil {
			log.Printf("持久化评估历史失败: ID=%s, Error=%v", evaluationID, err)
		}
	}

	// 6. 发布评估完成事件
	if e.bus != nil {
		event := realtime.NewEvent(realtime.EventEvaluationCompleted, evaluationID).WithOverall(string(rep.Overall))
		if err := e.bus.Publish(event); err != nil {
			log.Printf("发布评估完成事件失败: ID=%s, Error=%v", evaluationID, err)
		}
	}

	return result, nil
}

// persist 把评估结果写入历史仓储
func (e *Engine) persist(ctx context.Context, result *EvaluationResult) error {
	descJSON, err := json.Marshal(result.Description)
	if err != nil {
		return fmt.Errorf("序列化依赖描述失败: %w", err)
	}
	entriesJSON, err := json.Marshal(result.Report.Entries)
	if err != nil {
		return fmt.Errorf("序列化报告条目失败: %w", err)
	}

	// 持久化使用独立上下文：评估本身被取消时历史仍然要落库
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	return e.repo.Save(saveCtx, &storage.EvaluationRow{
		ID:             result.ID,
		RequestedAt:    result.RequestedAt,
		DurationMs:     result.Duration.Milliseconds(),
		Overall:        string(result.Report.Overall),
		ComponentCount: result.Graph.Size(),
		Description:    string(descJSON),
		Entries:        string(entriesJSON),
	})
}

// ResultFromRow 从历史行恢复报告与依赖图（供渲染接口使用）
func ResultFromRow(row *storage.EvaluationRow) (*EvaluationResult, error) {
	var description map[string][]string
	if err := json.Unmarshal([]byte(row.Description), &description); err != nil {
		return nil, fmt.Errorf("解析历史依赖描述失败: ID=%s, Error=%w", row.ID, err)
	}
	var entries []report.Entry
	if err := json.Unmarshal([]byte(row.Entries), &entries); err != nil {
		return nil, fmt.Errorf("解析历史报告条目失败: ID=%s, Error=%w", row.ID, err)
	}

	g, err := graph.Build(description)
	if err != nil {
		return nil, fmt.Errorf("重建依赖图失败: ID=%s, Error=%w", row.ID, err)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	return &EvaluationResult{
		ID:          row.ID,
		RequestedAt: row.RequestedAt,
		Duration:    time.Duration(row.DurationMs) * time.Millisecond,
		Graph:       g,
		Order:       order,
		Report:      &report.Report{Overall: report.Overall(row.Overall), Entries: entries},
		Description: description,
	}, nil
}
