// Package monitor 定时重复评估已配置的依赖图（仪表盘的后台监控）
package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/health-graph/pkg/config"
	"github.com/LENAX/health-graph/pkg/core/engine"
)

// Monitor 定时监控调度器（对外导出）
type Monitor struct {
	cron    *cron.Cron
	engine  *engine.Engine
	entries map[string]cron.EntryID // 监控项名称 -> cron.EntryID映射
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMonitor 创建定时监控调度器（对外导出）
func NewMonitor(eng *engine.Engine) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		cron:    cron.New(cron.WithSeconds()), // 支持秒级精度
		engine:  eng,
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register 注册监控项（对外导出）
func (m *Monitor) Register(mc config.MonitorConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[mc.Name]; exists {
		return fmt.Errorf("监控项 %s 已注册", mc.Name)
	}

	// 验证Cron表达式（使用Parser支持秒级精度）
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(mc.CronExpr); err != nil {
		return fmt.Errorf("监控项 %s 的Cron表达式无效: %w", mc.Name, err)
	}

	entryID, err := m.cron.AddFunc(mc.CronExpr, func() {
		m.trigger(mc)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}

	m.entries[mc.Name] = entryID
	log.Printf("✅ [监控调度器] 已注册监控项: Name=%s, CronExpr=%s, 组件数=%d", mc.Name, mc.CronExpr, len(mc.Graph))
	return nil
}

// trigger 执行一次监控评估
func (m *Monitor) trigger(mc config.MonitorConfig) {
	result, err := m.engine.Evaluate(m.ctx, mc.Graph, 0)
	if err != nil {
		log.Printf("[监控调度器] 监控项 %s 评估失败: %v", mc.Name, err)
		return
	}
	log.Printf("[监控调度器] 监控项 %s 评估完成: ID=%s, Overall=%s, 耗时=%s",
		mc.Name, result.ID, result.Report.Overall, result.Duration)
}

// Start 启动定时调度（对外导出）
func (m *Monitor) Start() {
	m.cron.Start()
	log.Printf("[监控调度器] 已启动，监控项数量=%d", len(m.entries))
}

// Stop 停止定时调度，等待在途评估完成（对外导出）
func (m *Monitor) Stop() {
	m.cancel()
	stopCtx := m.cron.Stop()
	<-stopCtx.Done()
	log.Println("[监控调度器] 已停止")
}
