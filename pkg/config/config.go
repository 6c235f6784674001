// Package config 服务配置的加载与校验
package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 配置时长类型
// 支持 "15s" 形式的Go时长字符串，以及纯数字（按秒解释）
type Duration time.Duration

// Std 转换为标准库时长
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("无效的时长: %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// Config 服务配置（对外导出）
type Config struct {
	HealthGraph struct {
		General struct {
			InstanceName string `yaml:"instance_name"`
			LogLevel     string `yaml:"log_level"`
			Env          string `yaml:"env"`
		} `yaml:"general"`
		Server struct {
			Host         string   `yaml:"host"`
			Port         int      `yaml:"port"`
			ReadTimeout  Duration `yaml:"read_timeout"`
			WriteTimeout Duration `yaml:"write_timeout"`
		} `yaml:"server"`
		Evaluation struct {
			DefaultConcurrency int      `yaml:"default_concurrency"` // 默认并发上限
			ProbeTimeout       Duration `yaml:"probe_timeout"`       // 单次探测超时
			Timeout            Duration `yaml:"timeout"`             // 整次评估超时
			Probe              struct {
				Kind     string `yaml:"kind"`     // http / html / static
				BaseURL  string `yaml:"base_url"` // 探测目标基础地址
				Selector string `yaml:"selector"` // html探测的CSS选择器
				Healthy  string `yaml:"healthy"`  // html探测的健康文本
			} `yaml:"probe"`
		} `yaml:"evaluation"`
		Storage struct {
			Driver string `yaml:"driver"` // sqlite / postgres / mysql
			DSN    string `yaml:"dsn"`
		} `yaml:"storage"`
		Monitors []MonitorConfig `yaml:"monitors"`
	} `yaml:"health-graph"`
}

// MonitorConfig 定时监控项配置
type MonitorConfig struct {
	Name     string              `yaml:"name"`      // 监控项名称
	CronExpr string              `yaml:"cron_expr"` // Cron表达式（支持秒级精度）
	Graph    map[string][]string `yaml:"graph"`     // 依赖描述：组件ID -> 依赖列表
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	hg := &c.HealthGraph
	if hg.General.InstanceName == "" {
		hg.General.InstanceName = "health-graph"
	}
	if hg.General.LogLevel == "" {
		hg.General.LogLevel = "info"
	}
	if hg.General.Env == "" {
		hg.General.Env = "dev"
	}
	if hg.Server.Host == "" {
		hg.Server.Host = "0.0.0.0"
	}
	if hg.Server.Port <= 0 {
		hg.Server.Port = 8080
	}
	if hg.Server.ReadTimeout <= 0 {
		hg.Server.ReadTimeout = Duration(15 * time.Second)
	}
	if hg.Server.WriteTimeout <= 0 {
		hg.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if hg.Evaluation.DefaultConcurrency <= 0 {
		hg.Evaluation.DefaultConcurrency = 10
	}
	if hg.Evaluation.ProbeTimeout <= 0 {
		hg.Evaluation.ProbeTimeout = Duration(5 * time.Second)
	}
	if hg.Evaluation.Timeout <= 0 {
		hg.Evaluation.Timeout = Duration(60 * time.Second)
	}
	if hg.Evaluation.Probe.Kind == "" {
		hg.Evaluation.Probe.Kind = "http"
	}
	if hg.Storage.Driver == "" {
		hg.Storage.Driver = "sqlite"
	}
	if hg.Storage.DSN == "" {
		hg.Storage.DSN = "./health-graph.db"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	hg := &c.HealthGraph
	switch hg.Storage.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("不支持的存储驱动: %s", hg.Storage.Driver)
	}
	switch hg.Evaluation.Probe.Kind {
	case "http", "html", "static":
	default:
		return fmt.Errorf("不支持的探测类型: %s", hg.Evaluation.Probe.Kind)
	}
	if hg.Evaluation.Probe.Kind != "static" && hg.Evaluation.Probe.BaseURL == "" {
		return fmt.Errorf("探测类型为 %s 时必须配置 base_url", hg.Evaluation.Probe.Kind)
	}
	for _, m := range hg.Monitors {
		if m.Name == "" || m.CronExpr == "" {
			return fmt.Errorf("监控项必须配置 name 和 cron_expr")
		}
		if len(m.Graph) == 0 {
			return fmt.Errorf("监控项 %s 未配置依赖图", m.Name)
		}
	}
	return nil
}

// GetDefaultConcurrency 获取默认并发上限
func (c *Config) GetDefaultConcurrency() int {
	return c.HealthGraph.Evaluation.DefaultConcurrency
}

// GetAddr 获取服务监听地址
func (c *Config) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.HealthGraph.Server.Host, c.HealthGraph.Server.Port)
}
