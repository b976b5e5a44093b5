package registration

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/iliyamo/event-registration/internal/model"
	"github.com/iliyamo/event-registration/internal/queue"
	"github.com/iliyamo/event-registration/internal/repository"
)

// Issuer assigns registration numbers.  A number marks "registration
// complete": it is handed out exactly once per user, the moment the paid
// tier's quota of bookings is filled, and is never reassigned or reused.
type Issuer struct {
	users  *repository.UserRepo
	policy TierPolicy
	base   int64 // first number ever assigned
}

// NewIssuer constructs an Issuer.  base is the registration number of the
// first user to ever complete (numbers count up from there).
func NewIssuer(users *repository.UserRepo, policy TierPolicy, base int64) *Issuer {
	return &Issuer{users: users, policy: policy, base: base}
}

// MaybeCompleteTx assigns a registration number when the user's booking
// count exactly matches their paid tier's quota.  It re-reads the user
// under an exclusive row lock so the paid tier and any already-assigned
// number are current, then takes max(existing)+1 (or the base constant
// for the very first completion).  The unique key on registration_number
// is the backstop against two concurrent completions picking the same
// value: a lost race surfaces as ErrRegNumberTaken and the next number is
// tried.  Returns nil without error when completion does not apply.
func (i *Issuer) MaybeCompleteTx(ctx context.Context, tx *sql.Tx, userID uint64, bookings []model.Booking) (*queue.RegistrationCompletedEvent, error) {
	u, err := i.users.LockByIDTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if u.RegistrationNumber != nil {
		return nil, nil // assigned once, never again
	}
	if !i.policy.QuotaMet(u.PaidTier, len(bookings)) {
		return nil, nil
	}

	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		max, ok, err := i.users.MaxRegistrationNumberTx(ctx, tx)
		if err != nil {
			return nil, err
		}
		next := i.base
		if ok && max+1 > next {
			next = max + 1
		}
		err = i.users.SetRegistrationNumberTx(ctx, tx, u.ID, next)
		if errors.Is(err, repository.ErrRegNumberTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &queue.RegistrationCompletedEvent{
			ChatID:             u.ChatID,
			RegistrationNumber: next,
			ChosenTier:         u.ChosenTier,
			Games:              Itinerary(bookings),
		}, nil
	}
	return nil, errors.New("registration number contention not resolved")
}

// Itinerary maps each (day, line) schedule cell to the game title of the
// earliest-created booking in that cell.  The input must be ordered by
// creation time (ties broken by insertion order), which ListByUserTx
// guarantees; the output is sorted by day then line for rendering.
func Itinerary(bookings []model.Booking) []queue.CellGame {
	type cell struct{ day, line int }
	seen := make(map[cell]struct{}, len(bookings))
	games := make([]queue.CellGame, 0, len(bookings))
	for _, b := range bookings {
		c := cell{b.Day, b.Line}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		games = append(games, queue.CellGame{Day: b.Day, Line: b.Line, Game: b.Game})
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].Day != games[j].Day {
			return games[i].Day < games[j].Day
		}
		return games[i].Line < games[j].Line
	})
	return games
}
