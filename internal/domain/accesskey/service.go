package accesskey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"keygate-server/utils/fingerprint"
	"keygate-server/utils/keygen"
)

// Service is the key lifecycle engine: generation, fingerprint binding,
// expiry enforcement, usage accounting and revocation over the shared
// key store.
//
// Every read-modify-write sequence (Validate, Issue's generate-check-
// create, Revoke) runs under a single engine-level mutex so concurrent
// calls for the same key never interleave their read and write halves.
type Service struct {
	repo       Repository
	ledger     UsageLedger
	log        zerolog.Logger
	genRetries int

	mu  sync.Mutex
	now func() time.Time
}

// Config configures the Service.
type Config struct {
	// GenerationRetries bounds how often Issue regenerates after a key
	// collision before giving up. Defensive only; collisions are
	// astronomically unlikely at this keyspace size.
	GenerationRetries int
}

// NewService constructs the lifecycle engine.
func NewService(repo Repository, ledger UsageLedger, cfg Config, log zerolog.Logger) *Service {
	retries := cfg.GenerationRetries
	if retries <= 0 {
		retries = 5
	}
	return &Service{
		repo:       repo,
		ledger:     ledger,
		log:        log.With().Str("component", "key-service").Logger(),
		genRetries: retries,
		now:        time.Now,
	}
}

// Issue generates a fresh key valid for the given duration spec and
// persists it. Delivery to the assignee is the caller's responsibility.
func (s *Service) Issue(ctx context.Context, durationSpec, issuer, assignee string) (*KeyRecord, error) {
	duration, err := ParseDurationSpec(durationSpec)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expiresAt := now.Add(duration)

	for attempt := 0; attempt < s.genRetries; attempt++ {
		key, err := keygen.New()
		if err != nil {
			return nil, err
		}

		record := &KeyRecord{
			Key:          key,
			CreatedBy:    strings.TrimSpace(issuer),
			AssignedTo:   strings.TrimSpace(assignee),
			DurationSpec: strings.TrimSpace(durationSpec),
			ExpiresAt:    &expiresAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := s.repo.Create(ctx, record); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				s.log.Warn().Str("key", key).Int("attempt", attempt+1).Msg("key collision, regenerating")
				continue
			}
			return nil, err
		}

		s.log.Info().
			Str("key", record.Key).
			Str("issuer", record.CreatedBy).
			Str("duration", record.DurationSpec).
			Time("expires_at", expiresAt).
			Msg("issued access key")
		return record, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, s.genRetries)
}

// Validate checks the key against the presenting device and binds or
// rebinds it per the single-live-key-per-device policy. Success means
// the key is currently valid and associated with the presented device.
func (s *Service) Validate(ctx context.Context, key, rawFingerprint string) (*ValidationResult, error) {
	key = keygen.Normalize(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrKeyNotFound
	}

	now := s.now()
	if record.IsExpired(now) {
		return nil, ErrKeyExpired
	}

	hash := fingerprint.Hash(rawFingerprint)

	if record.BoundFingerprint != hash {
		// First use or device handoff: either way the presenting device
		// must not hold a different live key.
		other, err := s.repo.FindLiveBoundFingerprint(ctx, hash, key, now)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, ErrDeviceBound
		}

		firstUse := !record.IsBound()
		record.BoundFingerprint = hash
		if record.FirstUsedAt == nil {
			record.FirstUsedAt = &now
		}
		record.UpdatedAt = now
		if err := s.repo.Update(ctx, record); err != nil {
			return nil, err
		}
		if firstUse {
			s.log.Info().Str("key", key).Msg("bound access key to device")
		} else {
			s.log.Info().Str("key", key).Msg("rebound access key to new device")
		}
	}

	// A ledger failure after a successful bind is an accounting loss,
	// not a validity error.
	if _, err := s.ledger.RecordUse(ctx, key, hash, record.CreatedAt, now); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("usage accounting failed")
	}

	result := &ValidationResult{Record: record, ExpiresAt: record.ExpiresAt}
	if record.ExpiresAt != nil {
		remaining := int64(record.ExpiresAt.Sub(now).Seconds())
		result.ExpiresIn = &remaining
	}
	return result, nil
}

// Revoke deletes the key record. The usage ledger is kept for audit.
func (s *Service) Revoke(ctx context.Context, key string) error {
	key = keygen.Normalize(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrKeyNotFound
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.log.Info().Str("key", key).Msg("revoked access key")
	return nil
}

// List returns key records matching the filter in insertion order.
// Expiry is evaluated lazily against the current time.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]KeyRecord, error) {
	return s.repo.List(ctx, filter, s.now())
}

// Stats returns the record with its derived expiry state and usage
// ledger entry.
func (s *Service) Stats(ctx context.Context, key string) (*KeyStats, error) {
	key = keygen.Normalize(key)

	record, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrKeyNotFound
	}

	usage, err := s.ledger.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return &KeyStats{
		Record:    record,
		IsExpired: record.IsExpired(s.now()),
		Usage:     usage,
	}, nil
}
