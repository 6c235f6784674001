package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound 指定ID的评估记录不存在
var ErrNotFound = errors.New("评估记录不存在")

// reportRepo ReportRepository 的 sqlx 实现
type reportRepo struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewReportRepository 创建评估报告仓储并初始化表结构（对外导出）
func NewReportRepository(db *sqlx.DB, dialect Dialect) (ReportRepository, error) {
	repo := &reportRepo{db: db, dialect: dialect}
	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("初始化评估历史表失败: %w", err)
	}
	return repo, nil
}

// migrate 建表并应用方言级配置
func (r *reportRepo) migrate() error {
	for _, stmt := range r.dialect.ConfigureDB() {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("执行配置SQL失败: %s, Error=%w", stmt, err)
		}
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS evaluations (
    id              %s PRIMARY KEY,
    requested_at    %s NOT NULL,
    duration_ms     BIGINT NOT NULL,
    overall         %s NOT NULL,
    component_count INTEGER NOT NULL,
    description     %s NOT NULL,
    entries         %s NOT NULL
)`,
		r.dialect.KeyType(),
		r.dialect.TimestampType(),
		r.dialect.KeyType(),
		r.dialect.TextType(),
		r.dialect.TextType(),
	)
	if _, err := r.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Save 保存一次评估结果
func (r *reportRepo) Save(ctx context.Context, row *EvaluationRow) error {
	query := `INSERT INTO evaluations
        (id, requested_at, duration_ms, overall, component_count, description, entries)
        VALUES (:id, :requested_at, :duration_ms, :overall, :component_count, :description, :entries)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("保存评估记录失败: ID=%s, Error=%w", row.ID, err)
	}
	return nil
}

// GetByID 按评估ID查询
func (r *reportRepo) GetByID(ctx context.Context, id string) (*EvaluationRow, error) {
	var row EvaluationRow
	query := r.db.Rebind(`SELECT * FROM evaluations WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: ID=%s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("查询评估记录失败: ID=%s, Error=%w", id, err)
	}
	return &row, nil
}

// List 按请求时间倒序分页查询
func (r *reportRepo) List(ctx context.Context, limit, offset int) ([]EvaluationRow, error) {
	if limit <= 0 {
		limit = 20 // 默认值
	}
	rows := make([]EvaluationRow, 0, limit)
	query := r.db.Rebind(`SELECT * FROM evaluations ORDER BY requested_at DESC LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("查询评估历史失败: %w", err)
	}
	return rows, nil
}

// Count 历史总数
func (r *reportRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM evaluations`); err != nil {
		return 0, fmt.Errorf("统计评估历史失败: %w", err)
	}
	return count, nil
}
