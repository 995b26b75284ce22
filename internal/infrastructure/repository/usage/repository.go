package usage

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "keygate-server/internal/domain/accesskey"
	"keygate-server/internal/infrastructure/database/entities"
	"keygate-server/internal/utils/platformerrors"
	"keygate-server/utils/usageid"
)

// Repository handles usage ledger persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordUse bumps the per-device counters for the key, creating the
// ledger entry on first use. The read-modify-write of the device
// document runs in one transaction.
func (r *Repository) RecordUse(ctx context.Context, key, fingerprintHash string, keyCreatedAt, now time.Time) (*domain.UsageEntry, error) {
	var updated *domain.UsageEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity entities.UsageEntry
		err := tx.Where("key = ?", key).First(&entity).Error
		if err == gorm.ErrRecordNotFound {
			devices := []domain.DeviceUsage{{
				FingerprintHash: fingerprintHash,
				FirstUsed:       now,
				LastUsed:        now,
				UseCount:        1,
			}}
			doc, err := json.Marshal(devices)
			if err != nil {
				return err
			}
			entity = entities.UsageEntry{
				ID:           usageid.New(),
				Key:          key,
				KeyCreatedAt: keyCreatedAt,
				Devices:      datatypes.JSON(doc),
				TotalUses:    1,
			}
			if err := tx.Create(&entity).Error; err != nil {
				return err
			}
			updated = mapEntity(entity, devices)
			return nil
		}
		if err != nil {
			return err
		}

		devices, err := decodeDevices(entity.Devices)
		if err != nil {
			return err
		}

		found := false
		for i := range devices {
			if devices[i].FingerprintHash == fingerprintHash {
				devices[i].UseCount++
				devices[i].LastUsed = now
				found = true
				break
			}
		}
		if !found {
			devices = append(devices, domain.DeviceUsage{
				FingerprintHash: fingerprintHash,
				FirstUsed:       now,
				LastUsed:        now,
				UseCount:        1,
			})
		}

		doc, err := json.Marshal(devices)
		if err != nil {
			return err
		}
		entity.Devices = datatypes.JSON(doc)
		entity.TotalUses++

		if err := tx.Model(&entities.UsageEntry{}).Where("id = ?", entity.ID).Updates(map[string]interface{}{
			"devices":    entity.Devices,
			"total_uses": entity.TotalUses,
		}).Error; err != nil {
			return err
		}
		updated = mapEntity(entity, devices)
		return nil
	})
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to record key use",
			err,
			"b4e82f6d-1a5c-4790-93ef-d06c218a47b5",
		)
	}
	return updated, nil
}

func (r *Repository) Get(ctx context.Context, key string) (*domain.UsageEntry, error) {
	var entity entities.UsageEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch usage entry",
			err,
			"7d30c5a1-e9b8-4624-8f5b-3a91d47ce082",
		)
	}

	devices, err := decodeDevices(entity.Devices)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to decode usage devices",
			err,
			"92f61b38-47dc-4e05-ba29-c7d85014efa6",
		)
	}
	return mapEntity(entity, devices), nil
}

func decodeDevices(doc datatypes.JSON) ([]domain.DeviceUsage, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	var devices []domain.DeviceUsage
	if err := json.Unmarshal(doc, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func mapEntity(entity entities.UsageEntry, devices []domain.DeviceUsage) *domain.UsageEntry {
	return &domain.UsageEntry{
		Key:          entity.Key,
		KeyCreatedAt: entity.KeyCreatedAt,
		Devices:      devices,
		TotalUses:    entity.TotalUses,
	}
}
