package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/Behyna/wa-inbox/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

func TestMySQLDSN(t *testing.T) {
	dsn := database.MySQLDSN(database.Config{
		Host:     "db.local",
		Port:     "3306",
		User:     "inbox",
		Password: "secret",
		Name:     "wa_inbox",
	})

	assert.Contains(t, dsn, "inbox:secret@tcp(db.local:3306)/wa_inbox")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestPostgresDSN(t *testing.T) {
	dsn := database.PostgresDSN(database.Config{
		Host: "pg.local", Port: "5432", User: "inbox", Password: "secret", Name: "wa_inbox",
	})

	assert.Equal(t,
		"host=pg.local port=5432 user=inbox password=secret dbname=wa_inbox sslmode=disable TimeZone=UTC", dsn)
}

func TestDialector(t *testing.T) {
	testCases := []struct {
		driver  string
		name    string
		wantErr bool
	}{
		{driver: database.DriverMySQL, name: "mysql"},
		{driver: "", name: "mysql"},
		{driver: database.DriverPostgres, name: "postgres"},
		{driver: database.DriverSQLite, name: "sqlite"},
		{driver: "oracle", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.driver, func(t *testing.T) {
			dialector, err := database.Dialector(database.Config{Driver: tc.driver, Path: ":memory:"})
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.name, dialector.Name())
		})
	}
}

func TestNewConnection_SQLite(t *testing.T) {
	cfg := database.Config{
		Driver:        database.DriverSQLite,
		Path:          "file:database_test?mode=memory&cache=shared",
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      "silent",
	}

	db, err := database.NewConnection(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewLogger_LevelFromConfig(t *testing.T) {
	logger := database.NewLogger(database.Config{LogLevel: "error"}, zap.NewNop())
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.LogMode(gormLogger.Info))
}
