package keygen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		key, err := New()
		require.NoError(t, err)
		assert.True(t, IsValid(key), "generated key %q should match the token format", key)
		assert.Len(t, key, 19)
	}
}

func TestNewUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		key, err := New()
		require.NoError(t, err)
		_, dup := seen[key]
		require.False(t, dup, "generated duplicate key %q", key)
		seen[key] = struct{}{}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"well formed", "A1B2-C3D4-E5F6-0789", true},
		{"lowercase", "a1b2-c3d4-e5f6-0789", false},
		{"missing segment", "A1B2-C3D4-E5F6", false},
		{"non hex", "GHIJ-C3D4-E5F6-0789", false},
		{"wrong separator", "A1B2_C3D4_E5F6_0789", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.value))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "A1B2-C3D4-E5F6-0789", Normalize("  a1b2-c3d4-e5f6-0789 "))
}
