// Package api 提供HTTP API服务器（表现层，薄胶水）
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/health-graph/pkg/api/handler"
	"github.com/LENAX/health-graph/pkg/core/engine"
	"github.com/LENAX/health-graph/pkg/core/realtime"
	"github.com/LENAX/health-graph/pkg/storage"
)

// ServerConfig API服务器配置（对外导出）
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server API服务器（对外导出）
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
}

// NewAPIServer 创建API服务器
// bus / repo 允许为nil：对应的接口降级（无事件推送 / 历史接口503）
func NewAPIServer(eng *engine.Engine, bus *realtime.Bus, repo storage.ReportRepository, cfg ServerConfig, version string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(version)
	evaluationHandler := handler.NewEvaluationHandler(eng, repo)

	// 服务自身健康检查
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// 评估接口
	v1 := router.Group("/api/v1")
	{
		v1.POST("/evaluations", evaluationHandler.Create)
		v1.GET("/evaluations", evaluationHandler.List)
		v1.GET("/evaluations/:id", evaluationHandler.Get)
		v1.GET("/evaluations/:id/image", evaluationHandler.Image)
		v1.GET("/evaluations/:id/table", evaluationHandler.Table)
	}

	// 实时事件推送
	if bus != nil {
		streamHandler := handler.NewStreamHandler(bus)
		router.GET("/ws/events", streamHandler.Events)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		router: router,
	}
}

// Router 返回底层gin路由（供测试直接挂载）
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start 启动HTTP服务（阻塞）
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
