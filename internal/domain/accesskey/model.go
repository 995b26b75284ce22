package accesskey

import (
	"context"
	"fmt"
	"time"
)

// KeyRecord represents an issued access key and its device binding.
type KeyRecord struct {
	Key              string     `json:"key"`
	CreatedBy        string     `json:"created_by"`
	AssignedTo       string     `json:"assigned_to,omitempty"`
	DurationSpec     string     `json:"duration"`
	ExpiresAt        *time.Time `json:"expires_at"`
	BoundFingerprint string     `json:"bound_fingerprint,omitempty"`
	FirstUsedAt      *time.Time `json:"first_used_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsExpired reports whether the key is past its expiry at the given
// instant. The comparison is strictly greater-than: a key presented at
// exactly its expiry is still valid.
func (k *KeyRecord) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// IsBound reports whether the key has been claimed by a device.
func (k *KeyRecord) IsBound() bool {
	return k.BoundFingerprint != ""
}

// DeviceUsage is the per-device slice of a usage ledger entry.
type DeviceUsage struct {
	FingerprintHash string    `json:"fingerprint_hash"`
	FirstUsed       time.Time `json:"first_used"`
	LastUsed        time.Time `json:"last_used"`
	UseCount        int64     `json:"use_count"`
}

// UsageEntry is the audit record for one key. It is created lazily on
// first validation, grows monotonically, and survives revocation.
type UsageEntry struct {
	Key          string        `json:"key"`
	KeyCreatedAt time.Time     `json:"key_created_at"`
	Devices      []DeviceUsage `json:"devices"`
	TotalUses    int64         `json:"total_uses"`
}

// ListFilter selects which key records List returns.
type ListFilter string

const (
	FilterAll    ListFilter = "all"
	FilterActive ListFilter = "active"
	FilterUsed   ListFilter = "used"
	FilterUnused ListFilter = "unused"
)

// ParseListFilter validates a user-supplied filter token. An empty
// token means all.
func ParseListFilter(raw string) (ListFilter, error) {
	switch ListFilter(raw) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive, FilterUsed, FilterUnused:
		return ListFilter(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
}

// ValidationResult is returned by Validate on success. ExpiresIn is the
// remaining time-to-live in whole seconds, nil when the key never
// expires.
type ValidationResult struct {
	Record    *KeyRecord
	ExpiresAt *time.Time
	ExpiresIn *int64
}

// KeyStats combines a key record with its derived expiry state and its
// usage ledger entry (nil when the key has never been validated).
type KeyStats struct {
	Record    *KeyRecord
	IsExpired bool
	Usage     *UsageEntry
}

// Repository defines storage operations for key records. Mutations are
// durable before they return.
type Repository interface {
	// Create persists a new record. Returns ErrDuplicateKey when a
	// record with the same key already exists.
	Create(ctx context.Context, record *KeyRecord) error
	// FindByKey returns (nil, nil) when the key is unknown.
	FindByKey(ctx context.Context, key string) (*KeyRecord, error)
	// FindLiveBoundFingerprint returns a non-expired record bound to
	// the given fingerprint hash on a key other than excludeKey, or
	// (nil, nil) when no such record exists.
	FindLiveBoundFingerprint(ctx context.Context, hash, excludeKey string, now time.Time) (*KeyRecord, error)
	// Update fully replaces the record matching record.Key. Returns
	// ErrKeyNotFound when absent.
	Update(ctx context.Context, record *KeyRecord) error
	// Delete removes the record. Returns ErrKeyNotFound when absent.
	Delete(ctx context.Context, key string) error
	// List returns records matching the filter in insertion order.
	List(ctx context.Context, filter ListFilter, now time.Time) ([]KeyRecord, error)
}

// UsageLedger defines usage accounting operations.
type UsageLedger interface {
	// RecordUse creates the ledger entry for the key if absent (seeded
	// with keyCreatedAt), bumps the per-device counters for the given
	// fingerprint hash and the entry total, and persists durably.
	RecordUse(ctx context.Context, key, fingerprintHash string, keyCreatedAt, now time.Time) (*UsageEntry, error)
	// Get returns (nil, nil) when the key has no ledger entry.
	Get(ctx context.Context, key string) (*UsageEntry, error)
}
