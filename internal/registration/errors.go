// Package registration implements the booking allocation core: exclusive
// seat claims, participation-tier state, quota accounting and one-time
// registration number assignment.  All coordination happens through the
// database's transactional and uniqueness guarantees so the service can
// run as multiple instances without shared in-process state.
package registration

import (
	"errors"
	"fmt"

	"github.com/iliyamo/event-registration/internal/repository"
)

// Stable error codes reported to callers.  The chat bot and the web UI
// switch on these to render the reason a claim was rejected.
const (
	CodeSeatTaken        = "SEAT_TAKEN"
	CodeCellBooked       = "ALREADY_BOOKED_THIS_CELL"
	CodeModeSwitchLocked = "MODE_SWITCH_LOCKED"
	CodeQuotaReached     = "QUOTA_REACHED"
	CodeDayLocked        = "DAY_LOCKED"
	CodeNotFound         = "NOT_FOUND"
)

// ModeSwitchLockedError rejects a tier change for a user who is too far
// into registration to change plans.  It carries the state the UI needs
// to explain the rejection.
type ModeSwitchLockedError struct {
	CurrentTier   int // tier the user is locked into
	RequestedTier int // tier the user asked for
	TotalBookings int // bookings that triggered the lock
}

func (e *ModeSwitchLockedError) Error() string {
	return fmt.Sprintf("tier switch %d->%d locked: %d bookings exist",
		e.CurrentTier, e.RequestedTier, e.TotalBookings)
}

// QuotaReachedError rejects a claim by a user whose paid tier quota is
// already exhausted.
type QuotaReachedError struct {
	Limit int // bookings the paid tier entitles the user to
}

func (e *QuotaReachedError) Error() string {
	return fmt.Sprintf("booking quota of %d reached", e.Limit)
}

// DayLockedError rejects a claim by a 1-day user for a day other than the
// one their existing bookings are on.
type DayLockedError struct {
	LockedDay    int // day the user is committed to
	RequestedDay int // day of the rejected claim
}

func (e *DayLockedError) Error() string {
	return fmt.Sprintf("bookings locked to day %d, requested day %d",
		e.LockedDay, e.RequestedDay)
}

// Code maps an error returned by the core to its stable code, or "" when
// the error is not a policy, conflict or not-found rejection.
func Code(err error) string {
	var lockErr *ModeSwitchLockedError
	var quotaErr *QuotaReachedError
	var dayErr *DayLockedError
	switch {
	case errors.Is(err, repository.ErrSeatTaken):
		return CodeSeatTaken
	case errors.Is(err, repository.ErrCellTaken):
		return CodeCellBooked
	case errors.Is(err, repository.ErrBookingNotFound), errors.Is(err, repository.ErrUserNotFound):
		return CodeNotFound
	case errors.As(err, &lockErr):
		return CodeModeSwitchLocked
	case errors.As(err, &quotaErr):
		return CodeQuotaReached
	case errors.As(err, &dayErr):
		return CodeDayLocked
	}
	return ""
}
