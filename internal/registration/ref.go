package registration

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewBookingRef generates an externally visible booking reference from the
// creation time plus a random suffix.  A collision is astronomically
// unlikely, but the unique key on bookings.booking_ref is the real
// guarantee; the timestamp prefix merely keeps references sortable and
// recognizable in chat messages and spreadsheets.
func NewBookingRef(now time.Time) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("BK-%s-%s", now.UTC().Format("20060102T150405"), hex.EncodeToString(b)), nil
}
