package dto

import (
	"time"

	"github.com/LENAX/health-graph/pkg/core/report"
)

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// EvaluationResponse 评估结果响应
type EvaluationResponse struct {
	ID          string         `json:"id"`
	RequestedAt time.Time      `json:"requested_at"`
	DurationMs  int64          `json:"duration_ms"`
	Overall     string         `json:"overall"`
	Components  []report.Entry `json:"components"`
	ImageURL    string         `json:"image_url"`
	TableURL    string         `json:"table_url"`
}

// EvaluationSummary 评估历史摘要
type EvaluationSummary struct {
	ID             string    `json:"id"`
	RequestedAt    time.Time `json:"requested_at"`
	DurationMs     int64     `json:"duration_ms"`
	Overall        string    `json:"overall"`
	ComponentCount int       `json:"component_count"`
}

// HistoryResponse 评估历史响应
type HistoryResponse struct {
	Total   int                 `json:"total"`
	Items   []EvaluationSummary `json:"items"`
	HasMore bool                `json:"has_more"`
}

// HealthResponse 服务自身健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}
