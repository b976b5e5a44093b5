package registration

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewBookingRef(t *testing.T) {
	now := time.Date(2026, 11, 4, 12, 30, 45, 0, time.UTC)

	ref, err := NewBookingRef(now)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "BK-20261104T123045-"), "unexpected reference %q", ref)

	// The suffix is 4 random bytes hex-encoded.
	suffix := strings.TrimPrefix(ref, "BK-20261104T123045-")
	require.Len(t, suffix, 8)
}

func TestNewBookingRefUniqueSuffix(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		ref, err := NewBookingRef(now)
		require.NoError(t, err)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %q after %d draws", ref, i)
		seen[ref] = struct{}{}
	}
}
