package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/BaSui01/capflow/internal/migration"
)

// =============================================================================
// 🗄️ migrate 命令
// =============================================================================

// runMigrate 管理决策审计日志的表结构，例如 capflow migrate --config c.yaml up
func runMigrate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("missing migrate command (one of %v)", migration.Commands)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return errors.New("database is not enabled (set database.enabled: true)")
	}

	cfg.Log.OutputPaths = []string{"stderr"}
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	migrator, err := migration.NewMigratorFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return migration.NewCLI(migrator, out).Run(ctx, fs.Args())
}
