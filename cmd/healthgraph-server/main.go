package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/health-graph/pkg/api"
	"github.com/LENAX/health-graph/pkg/config"
	"github.com/LENAX/health-graph/pkg/core/engine"
	"github.com/LENAX/health-graph/pkg/core/probe"
	"github.com/LENAX/health-graph/pkg/core/realtime"
	"github.com/LENAX/health-graph/pkg/monitor"
	"github.com/LENAX/health-graph/pkg/storage"
	"github.com/LENAX/health-graph/pkg/storage/mysql"
	"github.com/LENAX/health-graph/pkg/storage/postgres"
	"github.com/LENAX/health-graph/pkg/storage/sqlite"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./configs/health-graph.yaml", "服务配置文件路径")
	host := flag.String("host", "", "监听地址（覆盖配置文件）")
	port := flag.Int("port", 0, "监听端口（覆盖配置文件）")
	flag.Parse()

	log.Printf("Health Graph Server v%s", Version)
	log.Printf("配置文件: %s", *configPath)

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *host != "" {
		cfg.HealthGraph.Server.Host = *host
	}
	if *port > 0 {
		cfg.HealthGraph.Server.Port = *port
	}

	// 2. 打开评估历史存储
	db, dialect, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("打开存储失败: %v", err)
	}
	defer db.Close()

	repo, err := storage.NewReportRepository(db, dialect)
	if err != nil {
		log.Fatalf("初始化评估历史仓储失败: %v", err)
	}

	// 3. 构建事件总线与评估引擎
	bus := realtime.NewBus(cfg.HealthGraph.General.LogLevel == "debug")
	defer bus.Close()

	eng, err := engine.NewEngine(engine.Options{
		Probe:              buildProbe(cfg),
		Bus:                bus,
		Repository:         repo,
		DefaultConcurrency: cfg.GetDefaultConcurrency(),
		EvaluationTimeout:  cfg.HealthGraph.Evaluation.Timeout.Std(),
	})
	if err != nil {
		log.Fatalf("创建评估引擎失败: %v", err)
	}

	// 4. 注册并启动定时监控
	mon := monitor.NewMonitor(eng)
	for _, mc := range cfg.HealthGraph.Monitors {
		if err := mon.Register(mc); err != nil {
			log.Fatalf("注册监控项失败: %v", err)
		}
	}
	mon.Start()

	// 5. 启动API服务器
	serverConfig := api.ServerConfig{
		Host:         cfg.HealthGraph.Server.Host,
		Port:         cfg.HealthGraph.Server.Port,
		ReadTimeout:  cfg.HealthGraph.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.HealthGraph.Server.WriteTimeout.Std(),
	}
	apiServer := api.NewAPIServer(eng, bus, repo, serverConfig, Version)

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API服务器错误: %v", err)
		}
	}()

	log.Printf("✅ Health Graph Server started on %s", cfg.GetAddr())

	// 6. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 7. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.WriteTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭API服务器失败: %v", err)
	}
	mon.Stop()
	log.Println("✅ 服务已停止")
}

// openStorage 按配置打开数据库连接并返回对应方言
func openStorage(cfg *config.Config) (*sqlx.DB, storage.Dialect, error) {
	driver := cfg.HealthGraph.Storage.Driver
	dsn := cfg.HealthGraph.Storage.DSN

	switch driver {
	case "postgres":
		db, err := postgres.Open(dsn)
		return db, postgres.NewPostgresDialect(), err
	case "mysql":
		db, err := mysql.Open(dsn)
		return db, mysql.NewMySQLDialect(), err
	default:
		db, err := sqlite.Open(dsn)
		return db, sqlite.NewSQLiteDialect(), err
	}
}

// buildProbe 按配置构建健康探测器
func buildProbe(cfg *config.Config) probe.Probe {
	pc := cfg.HealthGraph.Evaluation.Probe
	timeout := cfg.HealthGraph.Evaluation.ProbeTimeout.Std()

	switch pc.Kind {
	case "html":
		return probe.NewHTMLProbe(pc.BaseURL, pc.Selector, pc.Healthy, timeout)
	case "static":
		return &probe.StaticProbe{}
	default:
		return probe.NewHTTPProbe(pc.BaseURL, timeout)
	}
}
