package registration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-registration/internal/model"
	"github.com/iliyamo/event-registration/internal/repository"
)

// seasonPolicy mirrors the default production values.
func seasonPolicy() TierPolicy {
	return TierPolicy{LockThreshold: 2, OneDayQuota: 2, TwoDayQuota: 4}
}

func TestAllowedBookingCount(t *testing.T) {
	p := seasonPolicy()

	tests := []struct {
		name     string
		paidTier int
		want     int
	}{
		{name: "unpaid gets the small allowance", paidTier: model.TierUnpaid, want: 2},
		{name: "paid one day", paidTier: model.TierOneDay, want: 2},
		{name: "paid two days", paidTier: model.TierTwoDay, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.AllowedBookingCount(tt.paidTier))
		})
	}
}

func TestApplyTier(t *testing.T) {
	p := seasonPolicy()

	tests := []struct {
		name          string
		chosen        int
		confirmed     bool
		requested     int
		totalBookings int
		wantUpdate    bool
		wantLocked    bool
	}{
		{
			name:       "same tier unconfirmed still confirms",
			chosen:     2,
			requested:  2,
			wantUpdate: true,
		},
		{
			name:       "same tier already confirmed is a no-op",
			chosen:     2,
			confirmed:  true,
			requested:  2,
			wantUpdate: false,
		},
		{
			name:          "switch with no bookings",
			chosen:        2,
			requested:     1,
			totalBookings: 0,
			wantUpdate:    true,
		},
		{
			name:          "switch at exactly the threshold is still allowed",
			chosen:        2,
			requested:     1,
			totalBookings: 2,
			wantUpdate:    true,
		},
		{
			name:          "switch above the threshold is locked",
			chosen:        2,
			requested:     1,
			totalBookings: 3,
			wantLocked:    true,
		},
		{
			name:          "lock applies in both directions",
			chosen:        1,
			confirmed:     true,
			requested:     2,
			totalBookings: 4,
			wantLocked:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &model.User{ChosenTier: tt.chosen, TierConfirmed: tt.confirmed}
			update, err := p.ApplyTier(u, tt.requested, tt.totalBookings)
			if tt.wantLocked {
				var lockErr *ModeSwitchLockedError
				require.ErrorAs(t, err, &lockErr)
				require.Equal(t, tt.chosen, lockErr.CurrentTier)
				require.Equal(t, tt.requested, lockErr.RequestedTier)
				require.Equal(t, tt.totalBookings, lockErr.TotalBookings)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantUpdate, update)
		})
	}
}

func TestCheckDayLock(t *testing.T) {
	p := seasonPolicy()
	existing := []model.Booking{{Day: 1, Line: 1}, {Day: 1, Line: 2}}

	tests := []struct {
		name       string
		chosenTier int
		existing   []model.Booking
		day        int
		wantLocked int // 0 means no error expected
	}{
		{name: "two day users are never day locked", chosenTier: 2, existing: existing, day: 2},
		{name: "one day user without bookings picks freely", chosenTier: 1, day: 2},
		{name: "one day user stays on the same day", chosenTier: 1, existing: existing, day: 1},
		{name: "one day user switching days is rejected", chosenTier: 1, existing: existing, day: 2, wantLocked: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CheckDayLock(tt.chosenTier, tt.existing, tt.day)
			if tt.wantLocked == 0 {
				require.NoError(t, err)
				return
			}
			var dayErr *DayLockedError
			require.ErrorAs(t, err, &dayErr)
			require.Equal(t, tt.wantLocked, dayErr.LockedDay)
			require.Equal(t, tt.day, dayErr.RequestedDay)
		})
	}
}

func TestQuotaMet(t *testing.T) {
	p := seasonPolicy()

	tests := []struct {
		name     string
		paidTier int
		count    int
		want     bool
	}{
		{name: "unpaid user never completes", paidTier: model.TierUnpaid, count: 2},
		{name: "one day below quota", paidTier: model.TierOneDay, count: 1},
		{name: "one day exactly at quota", paidTier: model.TierOneDay, count: 2, want: true},
		{name: "two days exactly at quota", paidTier: model.TierTwoDay, count: 4, want: true},
		{name: "two days below quota", paidTier: model.TierTwoDay, count: 3},
		{name: "past quota must not fire again", paidTier: model.TierTwoDay, count: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.QuotaMet(tt.paidTier, tt.count))
		})
	}
}

func TestCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "seat taken", err: repository.ErrSeatTaken, want: CodeSeatTaken},
		{name: "cell taken", err: repository.ErrCellTaken, want: CodeCellBooked},
		{name: "booking not found", err: repository.ErrBookingNotFound, want: CodeNotFound},
		{name: "user not found", err: repository.ErrUserNotFound, want: CodeNotFound},
		{name: "mode switch locked", err: &ModeSwitchLockedError{CurrentTier: 2, RequestedTier: 1, TotalBookings: 3}, want: CodeModeSwitchLocked},
		{name: "quota reached", err: &QuotaReachedError{Limit: 4}, want: CodeQuotaReached},
		{name: "day locked", err: &DayLockedError{LockedDay: 1, RequestedDay: 2}, want: CodeDayLocked},
		{name: "unrelated error has no code", err: errors.New("boom"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Code(tt.err))
		})
	}
}
