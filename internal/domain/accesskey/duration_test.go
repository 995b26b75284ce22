package accesskey

import (
	"errors"
	"testing"
	"time"
)

func TestParseDurationSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    time.Duration
		wantErr bool
	}{
		{"minutes", "2m", 2 * time.Minute, false},
		{"single minute", "1m", time.Minute, false},
		{"hours", "12h", 12 * time.Hour, false},
		{"days", "3d", 3 * 24 * time.Hour, false},
		{"large value", "365d", 365 * 24 * time.Hour, false},
		{"zero", "0m", 0, false},
		{"surrounding whitespace", " 5h ", 5 * time.Hour, false},
		{"letters only", "abc", 0, true},
		{"unknown unit", "5x", 0, true},
		{"negative", "-1h", 0, true},
		{"missing unit", "5", 0, true},
		{"missing value", "h", 0, true},
		{"weeks unsupported", "1w", 0, true},
		{"decimal", "1.5h", 0, true},
		{"empty", "", 0, true},
		{"internal whitespace", "1 h", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationSpec(tt.spec)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDuration) {
					t.Fatalf("ParseDurationSpec(%q) error = %v, want ErrInvalidDuration", tt.spec, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDurationSpec(%q) unexpected error: %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("ParseDurationSpec(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}
