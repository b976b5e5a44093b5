package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-registration/internal/model"
)

const bookingColumns = `id, user_id, booking_ref, slot_id, seat_id, day, line,
       game, master, COALESCE(time_start, ''), COALESCE(time_end, ''), is_paid, created_at`

// BookingRepo provides data access to the bookings table.  The insert path
// relies on the table's unique keys instead of read-then-write checks:
// uq_slot_seat enforces seat exclusivity and uq_user_cell enforces the
// one-booking-per-schedule-cell rule, so concurrent claims of the same
// seat resolve to exactly one winner at the database.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

func scanBooking(scan func(dest ...interface{}) error) (*model.Booking, error) {
	var b model.Booking
	err := scan(
		&b.ID, &b.UserID, &b.BookingRef, &b.SlotID, &b.SeatID, &b.Day, &b.Line,
		&b.Game, &b.Master, &b.TimeStart, &b.TimeEnd, &b.IsPaid, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertTx inserts a booking and populates its generated ID.  Duplicate-key
// errors are translated to the sentinel the violated constraint stands for:
// ErrSeatTaken when another booking holds the (slot_id, seat_id) pair,
// ErrCellTaken when the user already booked the (day, line) cell.
func (r *BookingRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings
		   (user_id, booking_ref, slot_id, seat_id, day, line, game, master, time_start, time_end, is_paid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.BookingRef, b.SlotID, b.SeatID, b.Day, b.Line, b.Game, b.Master,
		nullStr(b.TimeStart), nullStr(b.TimeEnd), b.IsPaid, b.CreatedAt,
	)
	if err != nil {
		switch {
		case isDuplicateOf(err, "uq_slot_seat"):
			return ErrSeatTaken
		case isDuplicateOf(err, "uq_user_cell"):
			return ErrCellTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// ListByUserTx returns all bookings of a user ordered by creation time,
// with the row id breaking ties.  The ordering matters: the itinerary
// shows the earliest-created booking per schedule cell, and the day-lock
// and quota checks need a consistent snapshot of the user's bookings
// inside the claiming transaction.
func (r *BookingRepo) ListByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]model.Booking, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByRefForUpdateTx fetches a booking by its reference and locks the row.
// Used by the decide and cancel paths so a concurrent decision on the same
// booking serializes.  Returns ErrBookingNotFound when no row matches.
func (r *BookingRepo) GetByRefForUpdateTx(ctx context.Context, tx *sql.Tx, ref string) (*model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE booking_ref = ? LIMIT 1 FOR UPDATE`,
		ref).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// MarkPaidTx flips the payment flag of a booking.
func (r *BookingRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET is_paid = TRUE WHERE id = ?`, id)
	return err
}

// DeleteTx removes a booking by primary key, freeing its (slot_id, seat_id)
// pair for immediate reuse.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	return err
}

// SeatsBySlot returns the seat ids currently booked in one slot.  The
// result feeds the seat-map UI, so it is a plain read outside any
// transaction and an empty slot yields an empty slice.
func (r *BookingRepo) SeatsBySlot(ctx context.Context, slotID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_id FROM bookings WHERE slot_id = ? ORDER BY seat_id`, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]int, 0)
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// SeatsByAllSlots returns the booked seat ids of every slot keyed by slot
// id.  Slots without bookings are simply absent from the map.
func (r *BookingRepo) SeatsByAllSlots(ctx context.Context) (map[string][]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT slot_id, seat_id FROM bookings ORDER BY slot_id, seat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]int)
	for rows.Next() {
		var slot string
		var seat int
		if err := rows.Scan(&slot, &seat); err != nil {
			return nil, err
		}
		out[slot] = append(out[slot], seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
