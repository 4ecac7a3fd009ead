// =============================================================================
// capflow 主入口
// =============================================================================
// 媒体理解能力运行服务入口，包含 HTTP 服务、健康检查、Prometheus 指标
//
// 使用方法:
//
//	capflow serve                                  # 启动服务
//	capflow serve --config config.yaml             # 指定配置文件
//	capflow run --capability audio note.ogg        # 对本地文件执行一次能力运行
//	capflow run --capability embedding --text hi   # 文本嵌入
//	capflow migrate --config config.yaml up        # 决策日志表结构迁移
//	capflow version                                # 显示版本信息
//	capflow health                                 # 健康检查
// =============================================================================

// @title capflow API
// @version 1.0.0
// @description capflow runs media understanding capabilities (audio transcription,
// @description image description, text embedding) across multiple providers with
// @description explicit model lists, automatic fallback and per-run decision records.

// @contact.name capflow Team
// @contact.url https://github.com/BaSui01/capflow

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for authentication

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/capflow/config"
	"github.com/BaSui01/capflow/internal/metrics"
	"github.com/BaSui01/capflow/internal/tlsutil"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "run":
		var code int
		code, err = runOnce(os.Args[2:], os.Stdout)
		if err == nil && code != 0 {
			os.Exit(code)
		}
	case "migrate":
		err = runMigrate(os.Args[2:], os.Stdout)
	case "version":
		printVersion()
	case "health":
		err = runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting capflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	collector := metrics.NewCollector("capflow", logger)

	comps, err := buildComponents(cfg, collector, logger)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	defer comps.Close(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := NewServer(cfg, comps, collector, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	logger.Info("capflow stopped")
	return nil
}

// loadConfig 加载并验证配置
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader().WithValidator(func(c *config.Config) error { return c.Validate() })
	if path != "" {
		loader = loader.WithConfigPath(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	ready := fs.Bool("ready", false, "Check readiness (dependencies) instead of liveness")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := "/health"
	if *ready {
		path = "/ready"
	}

	client := tlsutil.SecureHTTPClient(5 * time.Second)
	resp, err := client.Get(strings.TrimRight(*addr, "/") + path)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("health check failed: status " + resp.Status)
	}

	fmt.Println("OK")
	return nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("capflow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`capflow - media understanding capability runner

Usage:
  capflow <command> [options]

Commands:
  serve     Start the capflow server
  run       Run one capability over local files, URLs or text
  migrate   Manage the decision log schema
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve':
  --config <path>       Path to configuration file (YAML)

Options for 'run':
  --config <path>       Path to configuration file (YAML)
  --capability <name>   audio, vision or embedding (required)
  --prompt <text>       Override the configured prompt
  --language <code>     Override the configured language hint
  --text <text>         Text input, repeatable (embedding)
  --timeout <duration>  Overall run timeout (default 5m)

Options for 'migrate':
  --config <path>       Path to configuration file (YAML)
  <command>             up, down, down-all, steps N, goto V, force V,
                        version, status, info

Examples:
  capflow serve --config /etc/capflow/config.yaml
  capflow run --capability audio voice-note.ogg
  capflow run --capability vision https://example.com/cat.jpg
  capflow run --capability embedding --text "hello" --text "world"
  capflow migrate --config /etc/capflow/config.yaml status
  capflow health --addr http://localhost:8080 --ready
  capflow version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	// 构建配置
	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
