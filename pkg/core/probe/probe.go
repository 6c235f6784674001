// Package probe 定义健康探测协作方契约及内置实现
//
// 探测器内部的任何错误（超时、连接失败、非200响应）一律折算为 Failed 状态，
// 不向调度器抛出错误；上下文取消返回 Unknown。调度器的控制流因此不需要
// 任何探测相关的错误分支。
package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Status 组件健康状态（对外导出）
type Status string

const (
	StatusHealthy Status = "Healthy" // 健康
	StatusFailed  Status = "Failed"  // 不健康（探测失败或结果为负）
	StatusUnknown Status = "Unknown" // 未知（评估被取消，未完成探测）
)

// Probe 健康探测接口（对外导出）
// 实现必须支持对不同组件ID的并发调用，并响应 ctx 的取消信号
type Probe interface {
	// Check 探测指定组件的健康状态
	Check(ctx context.Context, componentID string) Status
}

// ProbeFunc 函数适配器（对外导出）
type ProbeFunc func(ctx context.Context, componentID string) Status

// Check 实现 Probe 接口
func (f ProbeFunc) Check(ctx context.Context, componentID string) Status {
	return f(ctx, componentID)
}

// StaticProbe 静态探测器（对外导出，用于测试和CLI本地评估）
// 按预设表返回状态，未列出的组件默认为 Healthy
type StaticProbe struct {
	Statuses map[string]Status // 组件ID -> 预设状态
}

// Check 实现 Probe 接口
func (p *StaticProbe) Check(ctx context.Context, componentID string) Status {
	if ctx.Err() != nil {
		return StatusUnknown
	}
	if status, ok := p.Statuses[componentID]; ok {
		return status
	}
	return StatusHealthy
}

// HTTPProbe HTTP健康探测器（对外导出）
// 请求 <BaseURL>/health/<componentID>，返回200视为健康
type HTTPProbe struct {
	BaseURL string        // 探测目标基础地址（不含末尾斜杠）
	Timeout time.Duration // 单次探测超时
	client  *http.Client
}

// NewHTTPProbe 创建HTTP探测器
func NewHTTPProbe(baseURL string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second // 默认值
	}
	return &HTTPProbe{
		BaseURL: baseURL,
		Timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Check 实现 Probe 接口
// 200 => Healthy；其他状态码或传输错误 => Failed；上下文取消 => Unknown
func (p *HTTPProbe) Check(ctx context.Context, componentID string) Status {
	if ctx.Err() != nil {
		return StatusUnknown
	}

	url := fmt.Sprintf("%s/health/%s", p.BaseURL, componentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusFailed
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// 请求因上下文取消而中断时不算探测失败
		if ctx.Err() != nil {
			return StatusUnknown
		}
		return StatusFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return StatusHealthy
	}
	return StatusFailed
}
