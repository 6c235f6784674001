// Package realtime 提供评估过程的事件驱动推送支持
package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/health-graph/pkg/core/probe"
)

// EventType 事件类型
type EventType string

const (
	// 评估生命周期事件
	EventEvaluationStarted   EventType = "evaluation.started"   // 评估开始
	EventEvaluationCompleted EventType = "evaluation.completed" // 评估完成

	// 组件生命周期事件
	EventComponentStarted  EventType = "component.started"  // 组件开始探测
	EventComponentResolved EventType = "component.resolved" // 组件得出终态
)

// Event 评估事件基础结构
type Event struct {
	ID           string       `json:"id"`                     // 事件ID（UUID）
	Type         EventType    `json:"type"`                   // 事件类型
	EvaluationID string       `json:"evaluation_id"`          // 关联评估ID
	ComponentID  string       `json:"component_id,omitempty"` // 关联组件ID（组件事件特有）
	Status       probe.Status `json:"status,omitempty"`       // 组件终态（component.resolved 特有）
	Overall      string       `json:"overall,omitempty"`      // 整体状态（evaluation.completed 特有）
	Timestamp    time.Time    `json:"timestamp"`              // 事件时间
}

// NewEvent 创建评估事件
func NewEvent(eventType EventType, evaluationID string) *Event {
	return &Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		EvaluationID: evaluationID,
		Timestamp:    time.Now(),
	}
}

// WithComponent 设置关联组件
func (e *Event) WithComponent(componentID string) *Event {
	e.ComponentID = componentID
	return e
}

// WithStatus 设置组件终态
func (e *Event) WithStatus(status probe.Status) *Event {
	e.Status = status
	return e
}

// WithOverall 设置整体状态
func (e *Event) WithOverall(overall string) *Event {
	e.Overall = overall
	return e
}
