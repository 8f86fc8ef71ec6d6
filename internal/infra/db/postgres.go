package db

import (
	"fmt"

	"github.com/artmirror-io/artmirror/internal/config"
	"github.com/artmirror-io/artmirror/internal/modules/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// New opens the postgres connection, applies pool limits from config and
// migrates the schema.
func New(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.Otel.Enabled {
		if err := gdb.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("install gorm tracing: %w", err)
		}
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	log.Info("database connected",
		zap.Int("max_open_conns", cfg.DB.MaxOpenConns))
	return gdb, nil
}

// Migrate creates or updates the tables the service owns.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&model.Record{}, &model.IngestRun{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
