package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/capflow/config"
	"github.com/BaSui01/capflow/internal/cache"
	"github.com/BaSui01/capflow/internal/database"
	"github.com/BaSui01/capflow/internal/metrics"
	"github.com/BaSui01/capflow/internal/telemetry"
	"github.com/BaSui01/capflow/llm/capability"
	llmfactory "github.com/BaSui01/capflow/llm/factory"
)

// =============================================================================
// 🧩 运行期组件
// =============================================================================

// components 运行期依赖集合，serve 与 run 命令共用
type components struct {
	registry  *capability.Registry
	runner    *capability.Runner
	telemetry *telemetry.Providers

	// 可选的决策存储，未启用或连接失败时为 nil
	cacheManager  *cache.Manager
	decisionCache *cache.DecisionCache
	pool          *database.PoolManager
	decisionLog   *database.DecisionLog

	logger *zap.Logger
}

// buildComponents 按配置装配 Provider 注册表、运行器与决策存储。
// collector 为 nil 时不记录 Prometheus 指标。
// Redis 与数据库不可用时仅告警，决策记录是尽力而为的。
func buildComponents(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (*components, error) {
	c := &components{logger: logger}

	tel, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
		tel = &telemetry.Providers{}
	}
	c.telemetry = tel

	c.registry, err = llmfactory.BuildRegistry(cfg.Models, logger)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, err
	}

	opts := []capability.RunnerOption{
		capability.WithLogger(logger),
		capability.WithTracer(tel.Tracer()),
		capability.WithSinkTimeout(cfg.Server.DecisionSinkTimeout),
	}
	if collector != nil {
		opts = append(opts, capability.WithObserver(collector))
	}
	if cfg.Telemetry.Enabled {
		if obs, err := telemetry.NewRunObserver(tel.Meter()); err != nil {
			logger.Warn("failed to create otel run observer", zap.Error(err))
		} else {
			opts = append(opts, capability.WithObserver(obs))
		}
	}

	var sinks []capability.DecisionSink
	if cfg.Redis.Enabled {
		if err := c.openCache(cfg.Redis, collector); err != nil {
			logger.Warn("Redis not available, recent decision cache disabled", zap.Error(err))
		} else {
			sinks = append(sinks, c.decisionCache)
		}
	}
	if cfg.Database.Enabled {
		if err := c.openDatabase(cfg.Database, collector); err != nil {
			logger.Warn("Database not available, decision audit log disabled", zap.Error(err))
		} else {
			sinks = append(sinks, c.decisionLog)
		}
	}
	opts = append(opts, capability.WithDecisionSinks(sinks...))

	c.runner = capability.NewRunner(c.registry, opts...)
	return c, nil
}

func (c *components) openCache(rc config.RedisConfig, collector *metrics.Collector) error {
	cc := cache.DefaultConfig()
	cc.Addr = rc.Addr
	cc.Password = rc.Password
	cc.DB = rc.DB
	cc.TLS = rc.TLS
	if rc.PoolSize > 0 {
		cc.PoolSize = rc.PoolSize
	}
	if rc.MinIdleConns > 0 {
		cc.MinIdleConns = rc.MinIdleConns
	}
	if rc.DecisionTTL > 0 {
		cc.DefaultTTL = rc.DecisionTTL
	}

	mgr, err := cache.NewManager(cc, c.logger)
	if err != nil {
		return err
	}

	var recorder cache.HitRecorder
	if collector != nil {
		recorder = collector
	}
	c.cacheManager = mgr
	c.decisionCache = cache.NewDecisionCache(mgr, cc.DefaultTTL, rc.RecentLimit, recorder, c.logger)
	return nil
}

func (c *components) openDatabase(dc config.DatabaseConfig, collector *metrics.Collector) error {
	db, err := database.Open(dc, c.logger)
	if err != nil {
		return err
	}

	var (
		poolOpts []database.PoolOption
		queries  database.QueryRecorder
	)
	if collector != nil {
		poolOpts = append(poolOpts, database.WithStatsRecorder(collector))
		queries = collector
	}

	pool, err := database.NewPoolManager(db, database.PoolConfigFrom(dc), c.logger, poolOpts...)
	if err != nil {
		return err
	}
	if dc.AutoMigrate {
		if err := database.AutoMigrate(pool.DB()); err != nil {
			_ = pool.Close()
			return err
		}
	}
	log, err := database.NewDecisionLog(pool, queries, c.logger)
	if err != nil {
		_ = pool.Close()
		return err
	}
	c.pool = pool
	c.decisionLog = log
	return nil
}

// Close 释放外部连接并刷新遥测数据
func (c *components) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	if c.cacheManager != nil {
		errs = append(errs, c.cacheManager.Close())
	}
	if c.pool != nil {
		errs = append(errs, c.pool.Close())
	}
	if c.telemetry != nil {
		errs = append(errs, c.telemetry.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.Error("component shutdown error", zap.Error(err))
	}
}
