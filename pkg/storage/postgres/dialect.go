package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/LENAX/health-graph/pkg/storage"
)

// PostgresDialect PostgreSQL方言实现（对外导出）
type PostgresDialect struct{}

// NewPostgresDialect 创建PostgreSQL方言实例
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

// Name 返回方言名称
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// KeyType 返回PostgreSQL主键文本类型
func (d *PostgresDialect) KeyType() string {
	return "TEXT"
}

// TextType 返回PostgreSQL文本类型
func (d *PostgresDialect) TextType() string {
	return "TEXT"
}

// TimestampType 返回PostgreSQL时间戳类型
func (d *PostgresDialect) TimestampType() string {
	return "TIMESTAMPTZ"
}

// ConfigureDB 返回PostgreSQL配置SQL（无需额外配置）
func (d *PostgresDialect) ConfigureDB() []string {
	return nil
}

// Open 打开PostgreSQL数据库连接
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接PostgreSQL失败: %w", err)
	}
	return db, nil
}

// 确保实现接口
var _ storage.Dialect = (*PostgresDialect)(nil)
