package accesskey

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "keygate-server/internal/domain/accesskey"
	"keygate-server/internal/infrastructure/database/entities"
	"keygate-server/internal/utils/platformerrors"
)

// Repository handles key record persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new key record. The existence check and insert run
// in one transaction so the DuplicateKey contract holds structurally.
func (r *Repository) Create(ctx context.Context, record *domain.KeyRecord) error {
	entity := fromDomain(record)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.AccessKey{}).Where("key = ?", entity.Key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateKey
		}
		return tx.Create(&entity).Error
	})
	if err == domain.ErrDuplicateKey {
		return err
	}
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create access key",
			err,
			"f1c42d6b-9a30-4d7e-bd52-8a6f04c92e11",
		)
	}
	return nil
}

func (r *Repository) FindByKey(ctx context.Context, key string) (*domain.KeyRecord, error) {
	var entity entities.AccessKey
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find access key",
			err,
			"3be8a0f2-51c4-4b8e-9d17-64d0c5a2b9f4",
		)
	}
	record := mapEntity(entity)
	return &record, nil
}

// FindLiveBoundFingerprint looks up a non-expired record bound to the
// hash on a key other than excludeKey. A record at exactly its expiry
// is still live.
func (r *Repository) FindLiveBoundFingerprint(ctx context.Context, hash, excludeKey string, now time.Time) (*domain.KeyRecord, error) {
	var entity entities.AccessKey
	err := r.db.WithContext(ctx).
		Where("bound_fingerprint = ? AND key <> ?", hash, excludeKey).
		Where("expires_at IS NULL OR expires_at >= ?", now).
		First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find bound fingerprint",
			err,
			"a9d51e07-2c6f-4f3a-8b80-5e2d9c41f763",
		)
	}
	record := mapEntity(entity)
	return &record, nil
}

// Update fully replaces the record matching record.Key.
func (r *Repository) Update(ctx context.Context, record *domain.KeyRecord) error {
	updates := map[string]interface{}{
		"created_by":        record.CreatedBy,
		"assigned_to":       record.AssignedTo,
		"duration_spec":     record.DurationSpec,
		"expires_at":        record.ExpiresAt,
		"bound_fingerprint": record.BoundFingerprint,
		"first_used_at":     record.FirstUsedAt,
		"updated_at":        record.UpdatedAt,
	}
	result := r.db.WithContext(ctx).Model(&entities.AccessKey{}).Where("key = ?", record.Key).Updates(updates)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update access key",
			result.Error,
			"6c0db2e9-8f5a-4d21-b3c7-19e4a8d05f32",
		)
	}
	if result.RowsAffected == 0 {
		return domain.ErrKeyNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	result := r.db.WithContext(ctx).Where("key = ?", key).Delete(&entities.AccessKey{})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete access key",
			result.Error,
			"0e7f4ab3-d162-4c58-9a0d-7b38c6e51d94",
		)
	}
	if result.RowsAffected == 0 {
		return domain.ErrKeyNotFound
	}
	return nil
}

// List returns records matching the filter ordered by insertion.
func (r *Repository) List(ctx context.Context, filter domain.ListFilter, now time.Time) ([]domain.KeyRecord, error) {
	query := r.db.WithContext(ctx).Model(&entities.AccessKey{})
	switch filter {
	case domain.FilterActive:
		query = query.Where("expires_at IS NULL OR expires_at >= ?", now)
	case domain.FilterUsed:
		query = query.Where("bound_fingerprint <> ''")
	case domain.FilterUnused:
		query = query.Where("bound_fingerprint = ''")
	}

	var models []entities.AccessKey
	if err := query.Order("seq ASC").Find(&models).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list access keys",
			err,
			"48b1c7da-30e5-4f96-a2d8-c95f16e04ab7",
		)
	}

	records := make([]domain.KeyRecord, 0, len(models))
	for _, m := range models {
		records = append(records, mapEntity(m))
	}
	return records, nil
}

func fromDomain(record *domain.KeyRecord) entities.AccessKey {
	return entities.AccessKey{
		Key:              record.Key,
		CreatedBy:        record.CreatedBy,
		AssignedTo:       record.AssignedTo,
		DurationSpec:     record.DurationSpec,
		ExpiresAt:        record.ExpiresAt,
		BoundFingerprint: record.BoundFingerprint,
		FirstUsedAt:      record.FirstUsedAt,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

func mapEntity(entity entities.AccessKey) domain.KeyRecord {
	return domain.KeyRecord{
		Key:              entity.Key,
		CreatedBy:        entity.CreatedBy,
		AssignedTo:       entity.AssignedTo,
		DurationSpec:     entity.DurationSpec,
		ExpiresAt:        entity.ExpiresAt,
		BoundFingerprint: entity.BoundFingerprint,
		FirstUsedAt:      entity.FirstUsedAt,
		CreatedAt:        entity.CreatedAt,
		UpdatedAt:        entity.UpdatedAt,
	}
}
