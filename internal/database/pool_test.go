package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/capflow/config"
)

// =============================================================================
// 🧪 PoolManager 测试
// =============================================================================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)

	return mockDB, mock, gormDB
}

type statsSpy struct {
	mu    sync.Mutex
	calls int
	name  string
}

func (s *statsSpy) RecordDBConnections(database string, open, idle int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.name = database
}

func (s *statsSpy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNewPoolManager(t *testing.T) {
	mockDB, _, gormDB := setupMockDB(t)
	defer mockDB.Close()

	cfg := PoolConfig{Name: "postgres", MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Hour}
	manager, err := NewPoolManager(gormDB, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, cfg, manager.config)
	assert.Same(t, gormDB, manager.DB())
	assert.Equal(t, 10, manager.Stats().MaxOpenConnections)
}

func TestNewPoolManager_NilDB(t *testing.T) {
	_, err := NewPoolManager(nil, PoolConfig{}, nil)
	assert.Error(t, err)
}

func TestPoolManager_WithTransaction(t *testing.T) {
	mockDB, mock, gormDB := setupMockDB(t)
	defer mockDB.Close()

	manager, err := NewPoolManager(gormDB, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = manager.WithTransaction(context.Background(), func(tx *gorm.DB) error { return nil })
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_WithTransactionRollback(t *testing.T) {
	mockDB, mock, gormDB := setupMockDB(t)
	defer mockDB.Close()

	manager, err := NewPoolManager(gormDB, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = manager.WithTransaction(context.Background(), func(tx *gorm.DB) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_Close(t *testing.T) {
	mockDB, mock, gormDB := setupMockDB(t)

	manager, err := NewPoolManager(gormDB, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
	_ = mockDB

	assert.ErrorIs(t, manager.Ping(context.Background()), ErrPoolClosed)
	err = manager.WithTransaction(context.Background(), func(tx *gorm.DB) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolManager_HealthCheckReportsStats(t *testing.T) {
	db := openSQLite(t)
	spy := &statsSpy{}

	manager, err := NewPoolManager(db, PoolConfig{
		Name: "sqlite", MaxOpenConns: 1, MaxIdleConns: 1, HealthCheckInterval: 10 * time.Millisecond,
	}, zap.NewNop(), WithStatsRecorder(spy))
	require.NoError(t, err)
	defer manager.Close()

	require.NoError(t, manager.Ping(context.Background()))
	assert.Eventually(t, func() bool { return spy.count() > 0 }, 2*time.Second, 10*time.Millisecond)
	spy.mu.Lock()
	assert.Equal(t, "sqlite", spy.name)
	spy.mu.Unlock()
}

func TestPoolConfigFrom(t *testing.T) {
	pg := PoolConfigFrom(config.DatabaseConfig{Driver: "postgres", MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: time.Minute})
	assert.Equal(t, "postgres", pg.Name)
	assert.Equal(t, 25, pg.MaxOpenConns)
	assert.Equal(t, time.Minute, pg.ConnMaxLifetime)

	lite := PoolConfigFrom(config.DatabaseConfig{Driver: "sqlite", MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: time.Minute})
	assert.Equal(t, 1, lite.MaxOpenConns)
	assert.Equal(t, 1, lite.MaxIdleConns)
	assert.Zero(t, lite.ConnMaxLifetime)
}

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432, User: "capflow",
		Password: "secret", Name: "capflow", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=capflow password=secret dbname=capflow sslmode=disable", DSN(cfg))
	assert.Equal(t, "/tmp/capflow.db", DSN(config.DatabaseConfig{Driver: "sqlite", Name: "/tmp/capflow.db"}))
	assert.Empty(t, DSN(config.DatabaseConfig{Driver: "mysql"}))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(config.DatabaseConfig{}, nil)
	assert.Error(t, err)

	_, err = Open(config.DatabaseConfig{Driver: "mysql"}, nil)
	assert.Error(t, err)

	_, err = Open(config.DatabaseConfig{Driver: "sqlite"}, nil)
	assert.Error(t, err)
}
