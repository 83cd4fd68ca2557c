package database

import (
	"context"
	"fmt"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"github.com/Behyna/wa-inbox/internal/repository/memory"
	"github.com/Behyna/wa-inbox/pkg/database"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewConnection opens and migrates the configured SQL store. The memory driver has
// no connection and yields a nil *gorm.DB.
func NewConnection(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.Database.Driver == database.DriverMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return nil, nil
	}

	db, err := database.NewConnection(context.Background(), cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		logger.Error("Failed to migrate schema", zap.Error(err))
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Message{},
		&model.Conversation{},
		&model.DailyMetrics{},
		&model.HourlyMetric{},
		&model.DailyCustomer{},
		&model.ResponseTracker{},
	)
}

type Repositories struct {
	fx.Out

	Messages      repository.MessageRepository
	Conversations repository.ConversationRepository
	Metrics       repository.MetricsRepository
	TxManager     repository.TxManager
}

// NewRepositories builds the gorm repositories, or the in-memory ones when db is nil.
func NewRepositories(db *gorm.DB) Repositories {
	if db == nil {
		store := memory.NewStore()
		return Repositories{
			Messages:      memory.NewMessageRepository(store),
			Conversations: memory.NewConversationRepository(store),
			Metrics:       memory.NewMetricsRepository(store),
			TxManager:     memory.NewTxManager(store),
		}
	}

	return Repositories{
		Messages:      repository.NewMessageRepository(db),
		Conversations: repository.NewConversationRepository(db),
		Metrics:       repository.NewMetricsRepository(db),
		TxManager:     repository.NewTransactionManager(db),
	}
}

// Module wires the store for fx applications.
var Module = fx.Options(
	fx.Provide(NewConnection, NewRepositories),
	fx.Invoke(closeOnStop),
)

func closeOnStop(db *gorm.DB, logger *zap.Logger, lc fx.Lifecycle) {
	if db == nil {
		return
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			logger.Info("Closing database connection")
			return sqlDB.Close()
		},
	})
}
