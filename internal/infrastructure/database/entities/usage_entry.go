package entities

import (
	"time"

	"gorm.io/datatypes"
)

// UsageEntry represents the persisted usage ledger entry for one key.
// The per-device history is a jsonb document, read-modified-written
// inside a transaction.
type UsageEntry struct {
	ID           string         `gorm:"type:varchar(40);primaryKey"`
	Key          string         `gorm:"type:varchar(19);uniqueIndex;not null"`
	KeyCreatedAt time.Time      `gorm:"not null"`
	Devices      datatypes.JSON `gorm:"type:jsonb"`
	TotalUses    int64          `gorm:"not null;default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (UsageEntry) TableName() string {
	return "usage_entries"
}
