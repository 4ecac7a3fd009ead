package migration

import (
	"fmt"

	"go.uber.org/zap"

	appconfig "github.com/BaSui01/capflow/config"
	"github.com/BaSui01/capflow/internal/database"
)

// NewMigratorFromConfig creates a new migrator from application configuration
func NewMigratorFromConfig(cfg *appconfig.Config, logger *zap.Logger) (*DefaultMigrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	return NewMigratorFromDatabaseConfig(cfg.Database, logger)
}

// NewMigratorFromDatabaseConfig opens the configured database through
// internal/database and wraps its connection in a migrator.
func NewMigratorFromDatabaseConfig(dbCfg appconfig.DatabaseConfig, logger *zap.Logger) (*DefaultMigrator, error) {
	dbType, err := ParseDatabaseType(dbCfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("invalid database type: %w", err)
	}

	gormDB, err := database.Open(dbCfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	m, err := NewMigrator(sqlDB, &Config{
		DatabaseType: dbType,
		TableName:    "schema_migrations",
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return m, nil
}
