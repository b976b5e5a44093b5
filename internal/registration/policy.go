package registration

import (
	"github.com/iliyamo/event-registration/internal/model"
)

// TierPolicy holds the participation-mode rules as plain values.  The
// thresholds changed between festival seasons, so they are injected from
// configuration instead of being hard-wired.
type TierPolicy struct {
	LockThreshold int // switching tiers is rejected once bookings exceed this
	OneDayQuota   int // bookings a paid 1-day tier entitles a user to
	TwoDayQuota   int // bookings a paid 2-day tier entitles a user to
}

// AllowedBookingCount returns the number of bookings the user's paid tier
// entitles them to.  The chosen tier is deliberately ignored: it may be
// provisional before payment, and an unpaid user still gets the smaller
// allowance to claim seats against.
func (p TierPolicy) AllowedBookingCount(paidTier int) int {
	if paidTier == model.TierTwoDay {
		return p.TwoDayQuota
	}
	return p.OneDayQuota
}

// ApplyTier validates a requested tier against the lock-in rule and
// reports whether the user record needs updating.  Requesting the current
// tier is a no-op apart from setting the confirmation flag; switching is
// rejected with ModeSwitchLockedError once the user has more bookings
// than the lock threshold.
func (p TierPolicy) ApplyTier(u *model.User, requested, totalBookings int) (update bool, err error) {
	if requested == u.ChosenTier {
		return !u.TierConfirmed, nil
	}
	if totalBookings > p.LockThreshold {
		return false, &ModeSwitchLockedError{
			CurrentTier:   u.ChosenTier,
			RequestedTier: requested,
			TotalBookings: totalBookings,
		}
	}
	return true, nil
}

// CheckDayLock enforces the single-day rule: once a 1-day user holds any
// booking, every further booking must be on the same day.
func (p TierPolicy) CheckDayLock(chosenTier int, existing []model.Booking, day int) error {
	if chosenTier != model.TierOneDay || len(existing) == 0 {
		return nil
	}
	locked := existing[0].Day
	if day != locked {
		return &DayLockedError{LockedDay: locked, RequestedDay: day}
	}
	return nil
}

// QuotaMet reports whether the user's booking count exactly matches the
// paid tier's allowance.  The comparison is deliberately == rather than >=
// so that a count pushed past the quota (or dropped below it again by a
// cancellation) never re-triggers completion.
func (p TierPolicy) QuotaMet(paidTier, count int) bool {
	if paidTier != model.TierOneDay && paidTier != model.TierTwoDay {
		return false
	}
	return count == p.AllowedBookingCount(paidTier)
}
