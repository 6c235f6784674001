// Package storage 提供评估历史的持久化（协作方，核心保持无状态）
package storage

import (
	"context"
	"time"
)

// Dialect 数据库方言接口（对外导出）
// 屏蔽 sqlite / postgres / mysql 在类型与连接配置上的差异
type Dialect interface {
	// Name 返回方言名称
	Name() string
	// KeyType 返回可作为主键/索引列的定长文本类型
	KeyType() string
	// TextType 返回长文本类型
	TextType() string
	// TimestampType 返回时间戳类型
	TimestampType() string
	// ConfigureDB 返回建连后执行的配置SQL
	ConfigureDB() []string
}

// EvaluationRow 评估历史行（对外导出）
type EvaluationRow struct {
	ID             string    `db:"id" json:"id"`                           // 评估ID（UUID）
	RequestedAt    time.Time `db:"requested_at" json:"requested_at"`       // 请求时间
	DurationMs     int64     `db:"duration_ms" json:"duration_ms"`         // 评估耗时（毫秒）
	Overall        string    `db:"overall" json:"overall"`                 // 整体状态
	ComponentCount int       `db:"component_count" json:"component_count"` // 组件数量
	Description    string    `db:"description" json:"-"`                   // 原始依赖描述（JSON）
	Entries        string    `db:"entries" json:"-"`                       // 报告条目（JSON）
}

// ReportRepository 评估报告仓储接口（对外导出）
type ReportRepository interface {
	// Save 保存一次评估结果
	Save(ctx context.Context, row *EvaluationRow) error
	// GetByID 按评估ID查询
	GetByID(ctx context.Context, id string) (*EvaluationRow, error)
	// List 按请求时间倒序分页查询
	List(ctx context.Context, limit, offset int) ([]EvaluationRow, error)
	// Count 历史总数
	Count(ctx context.Context) (int, error)
}
