package entities

import "time"

// AccessKey represents the persisted key record. Seq is assigned by
// the database and makes insertion order structural for listings.
type AccessKey struct {
	Seq              int64      `gorm:"autoIncrement;uniqueIndex"`
	Key              string     `gorm:"type:varchar(19);primaryKey"`
	CreatedBy        string     `gorm:"type:varchar(64);not null"`
	AssignedTo       string     `gorm:"type:varchar(64)"`
	DurationSpec     string     `gorm:"type:varchar(16);not null"`
	ExpiresAt        *time.Time `gorm:"index"`
	BoundFingerprint string     `gorm:"type:char(64);index"`
	FirstUsedAt      *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (AccessKey) TableName() string {
	return "access_keys"
}
