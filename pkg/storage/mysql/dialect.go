package mysql

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/LENAX/health-graph/pkg/storage"
)

// MySQLDialect MySQL方言实现（对外导出）
type MySQLDialect struct{}

// NewMySQLDialect 创建MySQL方言实例
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

// Name 返回方言名称
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// KeyType 返回MySQL主键文本类型（191以兼容utf8mb4索引长度）
func (d *MySQLDialect) KeyType() string {
	return "VARCHAR(191)"
}

// TextType 返回MySQL长文本类型
func (d *MySQLDialect) TextType() string {
	return "LONGTEXT"
}

// TimestampType 返回MySQL时间戳类型
func (d *MySQLDialect) TimestampType() string {
	return "DATETIME(6)"
}

// ConfigureDB 返回MySQL配置SQL（无需额外配置）
func (d *MySQLDialect) ConfigureDB() []string {
	return nil
}

// Open 打开MySQL数据库连接
// DSN需携带 parseTime=true 以正确扫描时间列
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}
	return db, nil
}

// 确保实现接口
var _ storage.Dialect = (*MySQLDialect)(nil)
