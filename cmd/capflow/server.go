package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/capflow/api/handlers"
	"github.com/BaSui01/capflow/config"
	"github.com/BaSui01/capflow/internal/metrics"
	"github.com/BaSui01/capflow/internal/server"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 capflow 的主服务器
type Server struct {
	cfg    *config.Config
	comps  *components
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// Handlers
	healthHandler     *handlers.HealthHandler
	capabilityHandler *handlers.CapabilityHandler
	debugHandler      *handlers.DebugHandler

	// 指标收集器
	metricsCollector *metrics.Collector
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, comps *components, collector *metrics.Collector, logger *zap.Logger) *Server {
	s := &Server{
		cfg:              cfg,
		comps:            comps,
		logger:           logger,
		metricsCollector: collector,
	}
	s.initHandlers()
	return s
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterOptionalCheck(handlers.NewProviderCheck(s.comps.registry))
	if s.comps.cacheManager != nil {
		s.healthHandler.RegisterOptionalCheck(handlers.NewPingCheck("redis", s.comps.cacheManager.Ping))
	}
	if s.comps.pool != nil {
		s.healthHandler.RegisterOptionalCheck(handlers.NewPingCheck("database", s.comps.pool.Ping))
	}

	s.capabilityHandler = handlers.NewCapabilityHandler(s.comps.runner, s.cfg.Tools.Media, s.logger)

	var (
		recent handlers.RecentDecisions
		store  handlers.DecisionStore
	)
	if s.comps.decisionCache != nil {
		recent = s.comps.decisionCache
	}
	if s.comps.decisionLog != nil {
		store = s.comps.decisionLog
	}
	s.debugHandler = handlers.NewDebugHandler(recent, store, s.logger)

	s.logger.Info("Handlers initialized")
}

// Handler 构建 API 路由与中间件链，ctx 结束时停止限流器的清理协程
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// API 路由
	// ========================================
	mux.HandleFunc("GET /api/v1/capabilities", s.capabilityHandler.HandleList)
	mux.HandleFunc("POST /api/v1/capabilities/{capability}/run", s.capabilityHandler.HandleRun)
	mux.HandleFunc("GET /api/v1/debug/decisions", s.debugHandler.HandleDecisions)
	mux.HandleFunc("GET /api/v1/debug/decisions/{id}", s.debugHandler.HandleDecision)
	mux.HandleFunc("GET /api/v1/debug/provider-failures", s.debugHandler.HandleProviderFailures)

	// ========================================
	// 构建中间件链
	// ========================================
	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version"}
	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
	}
	if s.metricsCollector != nil {
		middlewares = append(middlewares, MetricsMiddleware(s.metricsCollector))
	}
	middlewares = append(middlewares,
		RequestLogger(s.logger),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(ctx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.cfg.Server.AllowQueryAPIKey, s.logger),
		MaxBodyBytes(s.cfg.Server.MaxRequestBytes),
	)
	return Chain(mux, middlewares...)
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Run 启动 API 与 Metrics 服务器，阻塞直到 ctx 结束或任一服务器异常退出
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	s.httpManager = server.NewManager(s.Handler(gctx), server.FromConfig("api", s.cfg.Server.HTTPPort, s.cfg.Server), s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	g.Go(func() error { return s.httpManager.Run(gctx) })

	if s.cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		s.metricsManager = server.NewManager(mux, server.FromConfig("metrics", s.cfg.Server.MetricsPort, s.cfg.Server), s.logger)
		if err := s.metricsManager.Start(); err != nil {
			_ = s.httpManager.Shutdown(context.Background())
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		g.Go(func() error { return s.metricsManager.Run(gctx) })
	}

	s.logger.Info("All servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Int("providers", len(s.comps.registry.IDs())),
	)

	err := g.Wait()
	s.logger.Info("Graceful shutdown completed")
	return err
}
