//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"keygate-server/internal/config"
	domain "keygate-server/internal/domain/accesskey"
	"keygate-server/internal/infrastructure/auth"
	"keygate-server/internal/infrastructure/database"
	"keygate-server/internal/infrastructure/logger"
	keyrepo "keygate-server/internal/infrastructure/repository/accesskey"
	usagerepo "keygate-server/internal/infrastructure/repository/usage"
	"keygate-server/internal/interfaces/httpserver"
)

var keySet = wire.NewSet(
	keyrepo.NewRepository,
	wire.Bind(new(domain.Repository), new(*keyrepo.Repository)),
	usagerepo.NewRepository,
	wire.Bind(new(domain.UsageLedger), new(*usagerepo.Repository)),
	newServiceConfig,
	domain.NewService,
)

// BuildApplication assembles the key API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		newDatabaseConfig,
		newGormDB,
		keySet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DBPostgresqlDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newServiceConfig(cfg *config.Config) domain.Config {
	return domain.Config{
		GenerationRetries: cfg.KeyGenerationRetries,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}
