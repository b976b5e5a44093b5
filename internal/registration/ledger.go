package registration

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-registration/internal/model"
	"github.com/iliyamo/event-registration/internal/queue"
	"github.com/iliyamo/event-registration/internal/repository"
)

// Ledger is the allocation engine.  Every mutation of the bookings table —
// claiming, cancelling, approving, rejecting — goes through it, so the
// seat-exclusivity invariant is enforced in exactly one place.  Each
// operation runs in a single transaction and returns the outbound events
// for the caller to publish after commit; the core itself never touches
// the broker.
type Ledger struct {
	db       *sql.DB
	users    *repository.UserRepo
	bookings *repository.BookingRepo
	policy   TierPolicy
	issuer   *Issuer
}

// NewLedger constructs the allocation engine from its repositories and the
// season's policy values.
func NewLedger(db *sql.DB, users *repository.UserRepo, bookings *repository.BookingRepo, policy TierPolicy, issuer *Issuer) *Ledger {
	if db == nil || users == nil || bookings == nil || issuer == nil {
		panic("nil dependency passed to NewLedger")
	}
	return &Ledger{db: db, users: users, bookings: bookings, policy: policy, issuer: issuer}
}

// ClaimRequest carries everything a seat claim needs: who is claiming
// (weak identifiers plus profile hints), where (slot, seat, schedule
// cell), what is being played, and the participation tier the user asked
// for.
type ClaimRequest struct {
	Identity      repository.Identity
	SlotID        string
	SeatID        int
	Day           int
	Line          int
	Game          string
	Master        string
	RequestedTier int
}

// ClaimResult reports a successful claim: the persisted booking, whether
// it was auto-marked paid, and the events to hand to the notifier.
type ClaimResult struct {
	Booking  model.Booking
	AutoPaid bool
	Events   []queue.Event
}

// Claim performs the full booking sequence in one transaction: resolve or
// create the user, apply the requested tier, check quota, day lock and the
// (day, line) cell, derive the schedule window, insert the booking and ask
// the issuer whether the quota is now complete.  Conflicts with concurrent
// claims surface from the insert itself — the unique key on
// (slot_id, seat_id) is the source of truth, not a prior read.
func (l *Ledger) Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	u, err := l.users.ResolveOrCreateTx(ctx, tx, req.Identity)
	if err != nil {
		return nil, err
	}
	existing, err := l.bookings.ListByUserTx(ctx, tx, u.ID)
	if err != nil {
		return nil, err
	}

	update, err := l.policy.ApplyTier(u, req.RequestedTier, len(existing))
	if err != nil {
		return nil, err
	}
	if update {
		if err := l.users.SetChosenTierTx(ctx, tx, u.ID, req.RequestedTier, true); err != nil {
			return nil, err
		}
		u.ChosenTier = req.RequestedTier
		u.TierConfirmed = true
	}

	if limit := l.policy.AllowedBookingCount(u.PaidTier); len(existing) >= limit {
		return nil, &QuotaReachedError{Limit: limit}
	}
	if err := l.policy.CheckDayLock(u.ChosenTier, existing, req.Day); err != nil {
		return nil, err
	}
	for _, b := range existing {
		if b.Day == req.Day && b.Line == req.Line {
			return nil, repository.ErrCellTaken
		}
	}

	start, end := LineWindow(req.Line)
	now := time.Now().UTC()
	ref, err := NewBookingRef(now)
	if err != nil {
		return nil, err
	}
	booking := model.Booking{
		UserID:     u.ID,
		BookingRef: ref,
		SlotID:     req.SlotID,
		SeatID:     req.SeatID,
		Day:        req.Day,
		Line:       req.Line,
		Game:       req.Game,
		Master:     req.Master,
		TimeStart:  start,
		TimeEnd:    end,
		IsPaid:     u.HasPaid(), // paid-tier users skip manual approval
		CreatedAt:  now,
	}
	if err := l.bookings.InsertTx(ctx, tx, &booking); err != nil {
		return nil, err
	}

	completion, err := l.issuer.MaybeCompleteTx(ctx, tx, u.ID, append(existing, booking))
	if err != nil {
		// An assignment failure aborts the whole claim so no booking is
		// left in a state inconsistent with quota.
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	events := []queue.Event{queue.BookingCreatedEvent{
		BookingRef: booking.BookingRef,
		ChatID:     u.ChatID,
		Name:       displayName(u),
		Game:       booking.Game,
		Master:     booking.Master,
		Day:        booking.Day,
		Line:       booking.Line,
		SeatID:     booking.SeatID,
		AutoPaid:   booking.IsPaid,
		CreatedAt:  booking.CreatedAt.Format(time.RFC3339),
	}}
	if completion != nil {
		events = append(events, *completion)
	}
	return &ClaimResult{Booking: booking, AutoPaid: booking.IsPaid, Events: events}, nil
}

// Cancel deletes the booking behind a reference, freeing its
// (slot_id, seat_id) pair for immediate reuse.  Cancelling an unknown or
// already-cancelled reference yields repository.ErrBookingNotFound.
func (l *Ledger) Cancel(ctx context.Context, ref string) ([]queue.Event, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := l.bookings.GetByRefForUpdateTx(ctx, tx, ref)
	if err != nil {
		return nil, err
	}
	u, err := l.users.GetByIDTx(ctx, tx, b.UserID)
	if err != nil {
		return nil, err
	}
	if err := l.bookings.DeleteTx(ctx, tx, b.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return []queue.Event{queue.BookingCancelledEvent{
		BookingRef: b.BookingRef,
		ChatID:     u.ChatID,
	}}, nil
}

// Decide is the manual-approval counterpart to auto-pay: approve marks the
// booking paid and re-checks quota completion, reject deletes it.  The
// booking row is locked for the duration so concurrent decisions on the
// same reference serialize.  Approving an already-paid booking is a no-op
// and in particular does not re-fire completion side effects.
func (l *Ledger) Decide(ctx context.Context, ref string, approve bool) ([]queue.Event, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := l.bookings.GetByRefForUpdateTx(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	if !approve {
		u, err := l.users.GetByIDTx(ctx, tx, b.UserID)
		if err != nil {
			return nil, err
		}
		if err := l.bookings.DeleteTx(ctx, tx, b.ID); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return []queue.Event{queue.BookingCancelledEvent{
			BookingRef: b.BookingRef,
			ChatID:     u.ChatID,
		}}, nil
	}

	if b.IsPaid {
		// Already approved earlier; nothing to change, nothing to notify.
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return nil, nil
	}
	if err := l.bookings.MarkPaidTx(ctx, tx, b.ID); err != nil {
		return nil, err
	}
	all, err := l.bookings.ListByUserTx(ctx, tx, b.UserID)
	if err != nil {
		return nil, err
	}
	completion, err := l.issuer.MaybeCompleteTx(ctx, tx, b.UserID, all)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if completion != nil {
		return []queue.Event{*completion}, nil
	}
	return nil, nil
}

// ConfirmTierPayment records that the user paid for a participation tier.
// Existing bookings keep their individual payment flags, but the paid tier
// changes the quota and may complete registration on the spot when the
// user already holds exactly that many bookings.
func (l *Ledger) ConfirmTierPayment(ctx context.Context, ident repository.Identity, paidTier int) ([]queue.Event, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	u, err := l.users.FindForUpdateTx(ctx, tx, ident)
	if err != nil {
		return nil, err
	}
	if err := l.users.SetPaidTierTx(ctx, tx, u.ID, paidTier); err != nil {
		return nil, err
	}
	all, err := l.bookings.ListByUserTx(ctx, tx, u.ID)
	if err != nil {
		return nil, err
	}
	completion, err := l.issuer.MaybeCompleteTx(ctx, tx, u.ID, all)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if completion != nil {
		return []queue.Event{*completion}, nil
	}
	return nil, nil
}

// displayName renders the name shown in outbound notifications.
func displayName(u *model.User) string {
	name := u.FirstName
	if u.LastName != nil && *u.LastName != "" {
		name += " " + *u.LastName
	}
	return name
}
