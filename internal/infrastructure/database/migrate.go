package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"keygate-server/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes. Both tables initialize
// empty-but-valid on first start.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.AccessKey{}, &entities.UsageEntry{}); err != nil {
		return err
	}
	log.Info().Msg("applied access key migrations")
	return nil
}
