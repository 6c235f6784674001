package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "health-graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
health-graph:
  general:
    instance_name: hg-test
    log_level: debug
  server:
    host: 127.0.0.1
    port: 9090
  evaluation:
    default_concurrency: 4
    probe_timeout: 2s
    probe:
      kind: http
      base_url: http://localhost:8081
  storage:
    driver: sqlite
    dsn: ":memory:"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hg-test", cfg.HealthGraph.General.InstanceName)
	assert.Equal(t, "127.0.0.1:9090", cfg.GetAddr())
	assert.Equal(t, 4, cfg.GetDefaultConcurrency())
	assert.Equal(t, 2*time.Second, cfg.HealthGraph.Evaluation.ProbeTimeout.Std())
	// 未配置的字段应用默认值
	assert.Equal(t, "dev", cfg.HealthGraph.General.Env)
	assert.Equal(t, 60*time.Second, cfg.HealthGraph.Evaluation.Timeout.Std())
}

func TestLoad_FileMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "not-exist.yaml"))
	require.NoError(t, err, "配置文件不存在时应返回默认配置")

	assert.Equal(t, "health-graph", cfg.HealthGraph.General.InstanceName)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddr())
	assert.Equal(t, 10, cfg.GetDefaultConcurrency())
	assert.Equal(t, "sqlite", cfg.HealthGraph.Storage.Driver)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "health-graph: [not a mapping")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	path := writeConfig(t, `
health-graph:
  storage:
    driver: oracle
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不支持的存储驱动")
}

func TestLoad_ProbeRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
health-graph:
  evaluation:
    probe:
      kind: html
      selector: ".status"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestLoad_Monitors(t *testing.T) {
	path := writeConfig(t, `
health-graph:
  evaluation:
    probe:
      kind: static
  monitors:
    - name: core-services
      cron_expr: "0 */5 * * * *"
      graph:
        api: [db]
        db: []
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.HealthGraph.Monitors, 1)
	m := cfg.HealthGraph.Monitors[0]
	assert.Equal(t, "core-services", m.Name)
	assert.Equal(t, "0 */5 * * * *", m.CronExpr)
	assert.Equal(t, []string{"db"}, m.Graph["api"])
}

func TestValidate_MonitorWithoutGraph(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.HealthGraph.Evaluation.Probe.Kind = "static"
	cfg.HealthGraph.Monitors = []MonitorConfig{{Name: "m1", CronExpr: "@every 1m"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未配置依赖图")
}
