package usageid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a use_* ULID string for a usage ledger row.
func New() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return "use_" + strings.ToLower(id.String())
}

// IsValid reports whether the string is a use_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "use_") {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(strings.TrimPrefix(value, "use_")))
	return err == nil
}
