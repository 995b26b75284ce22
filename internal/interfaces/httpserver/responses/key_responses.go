package responses

import (
	"time"

	"keygate-server/internal/domain/accesskey"
)

// KeyResponse represents a key record at the management boundary.
type KeyResponse struct {
	Key              string     `json:"key"`
	CreatedBy        string     `json:"created_by"`
	AssignedTo       string     `json:"assigned_to,omitempty"`
	Duration         string     `json:"duration"`
	ExpiresAt        *time.Time `json:"expires_at"`
	BoundFingerprint string     `json:"bound_fingerprint,omitempty"`
	FirstUsedAt      *time.Time `json:"first_used_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// BuildKeyResponse creates a response from a domain record.
func BuildKeyResponse(record *accesskey.KeyRecord) *KeyResponse {
	return &KeyResponse{
		Key:              record.Key,
		CreatedBy:        record.CreatedBy,
		AssignedTo:       record.AssignedTo,
		Duration:         record.DurationSpec,
		ExpiresAt:        record.ExpiresAt,
		BoundFingerprint: record.BoundFingerprint,
		FirstUsedAt:      record.FirstUsedAt,
		CreatedAt:        record.CreatedAt,
	}
}

// ListResponse wraps a filtered key listing.
type ListResponse struct {
	Keys  []KeyResponse `json:"keys"`
	Total int           `json:"total"`
}

// BuildListResponse creates a listing response in store order.
func BuildListResponse(records []accesskey.KeyRecord) *ListResponse {
	keys := make([]KeyResponse, 0, len(records))
	for i := range records {
		keys = append(keys, *BuildKeyResponse(&records[i]))
	}
	return &ListResponse{Keys: keys, Total: len(keys)}
}

// DeviceUsageResponse is one device slice of a usage entry.
type DeviceUsageResponse struct {
	FingerprintHash string    `json:"fingerprint_hash"`
	FirstUsed       time.Time `json:"first_used"`
	LastUsed        time.Time `json:"last_used"`
	UseCount        int64     `json:"use_count"`
}

// UsageResponse represents the ledger entry for one key.
type UsageResponse struct {
	TotalUses int64                 `json:"total_uses"`
	Devices   []DeviceUsageResponse `json:"devices"`
}

// StatsResponse combines a key record with derived expiry state and
// usage history.
type StatsResponse struct {
	KeyResponse
	IsExpired bool           `json:"is_expired"`
	Usage     *UsageResponse `json:"usage,omitempty"`
}

// BuildStatsResponse creates a stats response from domain stats.
func BuildStatsResponse(stats *accesskey.KeyStats) *StatsResponse {
	resp := &StatsResponse{
		KeyResponse: *BuildKeyResponse(stats.Record),
		IsExpired:   stats.IsExpired,
	}
	if stats.Usage != nil {
		usage := &UsageResponse{
			TotalUses: stats.Usage.TotalUses,
			Devices:   make([]DeviceUsageResponse, 0, len(stats.Usage.Devices)),
		}
		for _, d := range stats.Usage.Devices {
			usage.Devices = append(usage.Devices, DeviceUsageResponse{
				FingerprintHash: d.FingerprintHash,
				FirstUsed:       d.FirstUsed,
				LastUsed:        d.LastUsed,
				UseCount:        d.UseCount,
			})
		}
		resp.Usage = usage
	}
	return resp
}

// ValidateResponse is the validation protocol success payload. Expiry
// is epoch milliseconds; both fields are null for keys that never
// expire.
type ValidateResponse struct {
	Valid     bool   `json:"valid"`
	Expiry    *int64 `json:"expiry"`
	ExpiresIn *int64 `json:"expires_in"`
}

// BuildValidateResponse creates the success payload from a validation
// result.
func BuildValidateResponse(result *accesskey.ValidationResult) *ValidateResponse {
	resp := &ValidateResponse{Valid: true, ExpiresIn: result.ExpiresIn}
	if result.ExpiresAt != nil {
		millis := result.ExpiresAt.UnixMilli()
		resp.Expiry = &millis
	}
	return resp
}

// ValidateErrorResponse is the validation protocol failure payload.
type ValidateErrorResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}
