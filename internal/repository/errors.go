// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// registration core to distinguish between different failure scenarios
// without parsing driver errors themselves. The duplicate-key translation
// lives here because the unique constraints are the real enforcement
// mechanism for seat exclusivity and the per-cell rule.
package repository

import (
	"errors"
	"strings"
)

// ErrSeatTaken is returned when an insert violates the (slot_id, seat_id)
// unique key, meaning another booking already holds the seat. Handlers
// should translate this into an HTTP 409 response with code SEAT_TAKEN.
var ErrSeatTaken = errors.New("seat already taken")

// ErrCellTaken is returned when an insert violates the (user_id, day, line)
// unique key, meaning the user already booked this schedule cell.
var ErrCellTaken = errors.New("cell already booked")

// ErrBookingNotFound is returned when no booking exists for a given
// booking reference. Handlers should translate this into HTTP 404.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound is returned when no user matches any of the supplied
// identifiers.
var ErrUserNotFound = errors.New("user not found")

// ErrRegNumberTaken is returned when writing a registration number loses
// the race against a concurrent completion. The issuer re-reads the
// maximum and retries with the next number.
var ErrRegNumberTaken = errors.New("registration number taken")

// isDuplicateOf reports whether err is a MySQL duplicate-entry error (1062)
// on the named unique key. The key name appears in the error message as
// "for key 'table.key_name'" on MySQL 8 and "for key 'key_name'" on older
// servers, so a substring match on the bare key name covers both.
func isDuplicateOf(err error, key string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1062") && strings.Contains(msg, key)
}
