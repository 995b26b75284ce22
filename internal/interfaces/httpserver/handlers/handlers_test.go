package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"keygate-server/internal/config"
	domain "keygate-server/internal/domain/accesskey"
	"keygate-server/internal/interfaces/httpserver/handlers"
	"keygate-server/utils/fingerprint"
	"keygate-server/utils/keygen"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]domain.KeyRecord
	order   []string
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.KeyRecord)}
}

func (s *memStore) seed(record domain.KeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Key] = record
	s.order = append(s.order, record.Key)
}

func (s *memStore) Create(_ context.Context, record *domain.KeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Key]; exists {
		return domain.ErrDuplicateKey
	}
	s.records[record.Key] = *record
	s.order = append(s.order, record.Key)
	return nil
}

func (s *memStore) FindByKey(_ context.Context, key string) (*domain.KeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *memStore) FindLiveBoundFingerprint(_ context.Context, hash, excludeKey string, now time.Time) (*domain.KeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.order {
		record := s.records[key]
		if record.Key == excludeKey || record.BoundFingerprint != hash {
			continue
		}
		if record.ExpiresAt == nil || !now.After(*record.ExpiresAt) {
			return &record, nil
		}
	}
	return nil, nil
}

func (s *memStore) Update(_ context.Context, record *domain.KeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Key]; !ok {
		return domain.ErrKeyNotFound
	}
	s.records[record.Key] = *record
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return domain.ErrKeyNotFound
	}
	delete(s.records, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memStore) List(_ context.Context, filter domain.ListFilter, now time.Time) ([]domain.KeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.KeyRecord
	for _, key := range s.order {
		record := s.records[key]
		switch filter {
		case domain.FilterActive:
			if record.IsExpired(now) {
				continue
			}
		case domain.FilterUsed:
			if !record.IsBound() {
				continue
			}
		case domain.FilterUnused:
			if record.IsBound() {
				continue
			}
		}
		out = append(out, record)
	}
	return out, nil
}

type memLedger struct {
	mu      sync.Mutex
	entries map[string]*domain.UsageEntry
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]*domain.UsageEntry)}
}

func (l *memLedger) RecordUse(_ context.Context, key, hash string, keyCreatedAt, now time.Time) (*domain.UsageEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &domain.UsageEntry{Key: key, KeyCreatedAt: keyCreatedAt}
		l.entries[key] = entry
	}
	found := false
	for i := range entry.Devices {
		if entry.Devices[i].FingerprintHash == hash {
			entry.Devices[i].UseCount++
			entry.Devices[i].LastUsed = now
			found = true
			break
		}
	}
	if !found {
		entry.Devices = append(entry.Devices, domain.DeviceUsage{
			FingerprintHash: hash,
			FirstUsed:       now,
			LastUsed:        now,
			UseCount:        1,
		})
	}
	entry.TotalUses++
	copied := *entry
	return &copied, nil
}

func (l *memLedger) Get(_ context.Context, key string) (*domain.UsageEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func newTestRouter(store *memStore, ledger *memLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()
	service := domain.NewService(store, ledger, domain.Config{}, log)

	keyHandler := handlers.NewKeyHandler(&config.Config{}, service, log)
	validationHandler := handlers.NewValidationHandler(service, log)

	router := gin.New()
	router.POST("/v1/validate", validationHandler.Validate)
	keys := router.Group("/v1/keys")
	keys.POST("", keyHandler.Issue)
	keys.GET("", keyHandler.List)
	keys.GET("/:key", keyHandler.Stats)
	keys.DELETE("/:key", keyHandler.Revoke)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var decoded map[string]any
	if recorder.Body.Len() > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
		}
	}
	return recorder, decoded
}

func liveRecord(key string, ttl time.Duration) domain.KeyRecord {
	now := time.Now()
	expires := now.Add(ttl)
	return domain.KeyRecord{
		Key:          key,
		CreatedBy:    "operator#1",
		DurationSpec: "1h",
		ExpiresAt:    &expires,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIssueEndpoint(t *testing.T) {
	router := newTestRouter(newMemStore(), newMemLedger())

	recorder, body := doJSON(t, router, http.MethodPost, "/v1/keys", gin.H{
		"duration":    "12h",
		"created_by":  "operator#1",
		"assigned_to": "user#42",
	})

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", recorder.Code, recorder.Body.String())
	}
	key, _ := body["key"].(string)
	if !keygen.IsValid(key) {
		t.Errorf("issued key %q does not match the token format", key)
	}
	if body["duration"] != "12h" || body["created_by"] != "operator#1" || body["assigned_to"] != "user#42" {
		t.Errorf("unexpected issue payload: %v", body)
	}
	if body["expires_at"] == nil {
		t.Error("expires_at missing from issue payload")
	}
}

func TestIssueEndpointRejectsBadInput(t *testing.T) {
	router := newTestRouter(newMemStore(), newMemLedger())

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing duration", gin.H{"created_by": "operator#1"}},
		{"missing created_by", gin.H{"duration": "1h"}},
		{"malformed duration", gin.H{"duration": "soon", "created_by": "operator#1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, body := doJSON(t, router, http.MethodPost, "/v1/keys", tt.body)
			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", recorder.Code)
			}
			if body["error"] == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestListEndpointFilters(t *testing.T) {
	store := newMemStore()
	expired := liveRecord("AAAA-0000-0000-0001", -time.Minute)
	bound := liveRecord("AAAA-0000-0000-0002", time.Hour)
	bound.BoundFingerprint = fingerprint.Hash("fp-a")
	fresh := liveRecord("AAAA-0000-0000-0003", time.Hour)
	store.seed(expired)
	store.seed(bound)
	store.seed(fresh)

	router := newTestRouter(store, newMemLedger())

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?filter=all", 3},
		{"?filter=active", 2},
		{"?filter=used", 1},
		{"?filter=unused", 2},
	}
	for _, tt := range tests {
		t.Run("filter"+tt.query, func(t *testing.T) {
			recorder, body := doJSON(t, router, http.MethodGet, "/v1/keys"+tt.query, nil)
			if recorder.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", recorder.Code)
			}
			if total := int(body["total"].(float64)); total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}

	recorder, _ := doJSON(t, router, http.MethodGet, "/v1/keys?filter=bogus", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status for unknown filter = %d, want 400", recorder.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	record := liveRecord("AAAA-0000-0000-0001", time.Hour)
	record.BoundFingerprint = fingerprint.Hash("fp-a")
	store.seed(record)
	if _, err := ledger.RecordUse(context.Background(), record.Key, record.BoundFingerprint, record.CreatedAt, time.Now()); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	router := newTestRouter(store, ledger)

	recorder, body := doJSON(t, router, http.MethodGet, "/v1/keys/"+record.Key, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", recorder.Code, recorder.Body.String())
	}
	if body["is_expired"] != false {
		t.Errorf("is_expired = %v, want false", body["is_expired"])
	}
	usage, ok := body["usage"].(map[string]any)
	if !ok {
		t.Fatalf("usage missing from stats payload: %v", body)
	}
	if total := int(usage["total_uses"].(float64)); total != 1 {
		t.Errorf("total_uses = %d, want 1", total)
	}

	recorder, _ = doJSON(t, router, http.MethodGet, "/v1/keys/AAAA-0000-0000-FFFF", nil)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("status for unknown key = %d, want 404", recorder.Code)
	}
}

func TestRevokeEndpoint(t *testing.T) {
	store := newMemStore()
	record := liveRecord("AAAA-0000-0000-0001", time.Hour)
	store.seed(record)

	router := newTestRouter(store, newMemLedger())

	recorder, body := doJSON(t, router, http.MethodDelete, "/v1/keys/"+record.Key, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if body["revoked"] != true || body["key"] != record.Key {
		t.Errorf("unexpected revoke payload: %v", body)
	}

	recorder, _ = doJSON(t, router, http.MethodDelete, "/v1/keys/"+record.Key, nil)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("status for second revoke = %d, want 404", recorder.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	store := newMemStore()
	live := liveRecord("AAAA-0000-0000-0001", time.Hour)
	expired := liveRecord("AAAA-0000-0000-0002", -time.Minute)
	taken := liveRecord("AAAA-0000-0000-0003", time.Hour)
	taken.BoundFingerprint = fingerprint.Hash("fp-claimed")
	spare := liveRecord("AAAA-0000-0000-0004", time.Hour)
	store.seed(live)
	store.seed(expired)
	store.seed(taken)
	store.seed(spare)

	router := newTestRouter(store, newMemLedger())

	t.Run("missing fields", func(t *testing.T) {
		recorder, body := doJSON(t, router, http.MethodPost, "/v1/validate", gin.H{"key": live.Key})
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", recorder.Code)
		}
		if body["valid"] != false || body["error"] != "key and fingerprint are required" {
			t.Errorf("unexpected payload: %v", body)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		recorder, body := doJSON(t, router, http.MethodPost, "/v1/validate", gin.H{
			"key": "AAAA-0000-0000-FFFF", "fingerprint": "fp-a",
		})
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", recorder.Code)
		}
		if body["valid"] != false {
			t.Errorf("valid = %v, want false", body["valid"])
		}
	})

	t.Run("expired key", func(t *testing.T) {
		recorder, body := doJSON(t, router, http.MethodPost, "/v1/validate", gin.H{
			"key": expired.Key, "fingerprint": "fp-a",
		})
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", recorder.Code)
		}
		if body["valid"] != false {
			t.Errorf("valid = %v, want false", body["valid"])
		}
	})

	t.Run("device holds another live key", func(t *testing.T) {
		recorder, body := doJSON(t, router, http.MethodPost, "/v1/validate", gin.H{
			"key": spare.Key, "fingerprint": "fp-claimed",
		})
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403 (body %s)", recorder.Code, recorder.Body.String())
		}
		if body["valid"] != false {
			t.Errorf("valid = %v, want false", body["valid"])
		}
	})

	t.Run("success binds and reports expiry", func(t *testing.T) {
		recorder, body := doJSON(t, router, http.MethodPost, "/v1/validate", gin.H{
			"key": live.Key, "fingerprint": "fp-a",
		})
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", recorder.Code, recorder.Body.String())
		}
		if body["valid"] != true {
			t.Errorf("valid = %v, want true", body["valid"])
		}
		if body["expiry"] == nil {
			t.Error("expiry missing from success payload")
		}
		expiresIn, ok := body["expires_in"].(float64)
		if !ok || expiresIn < 0 || expiresIn > 3600 {
			t.Errorf("expires_in = %v, want 0..3600 seconds", body["expires_in"])
		}

		// Keys are matched case-insensitively.
		recorder, body = doJSON(t, router, http.MethodPost, "/v1/validate", gin.H{
			"key": "aaaa-0000-0000-0001", "fingerprint": "fp-a",
		})
		if recorder.Code != http.StatusOK || body["valid"] != true {
			t.Errorf("lowercase key: status %d valid %v, want 200 true", recorder.Code, body["valid"])
		}
	})
}
