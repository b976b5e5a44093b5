package model

import "time"

// Booking records one exclusive seat claim inside a game slot.  The
// `(slot_id, seat_id)` pair is unique for the lifetime of the booking and
// is freed the moment the row is deleted.  A user may hold at most one
// booking per `(day, line)` schedule cell.
//
// Fields:
//
//	ID         – primary key identifier.
//	UserID     – owning participant.
//	BookingRef – externally visible opaque reference, unique, never reused.
//	SlotID     – groups bookings competing for the same physical seats.
//	SeatID     – claimed seat within the slot.
//	Day        – festival day of the schedule cell.
//	Line       – schedule line within the day (1 = morning, 2 = afternoon).
//	Game       – title of the game played in the slot.
//	Master     – name of the game master.
//	TimeStart  – "HH:MM:SS" start of the line's window, empty when unknown.
//	TimeEnd    – "HH:MM:SS" end of the line's window, empty when unknown.
//	IsPaid     – payment flag; the only mutable attribute.
//	CreatedAt  – creation timestamp, breaks ties in the itinerary.
type Booking struct {
	ID         uint64    // bookings.id
	UserID     uint64    // bookings.user_id
	BookingRef string    // bookings.booking_ref
	SlotID     string    // bookings.slot_id
	SeatID     int       // bookings.seat_id
	Day        int       // bookings.day
	Line       int       // bookings.line
	Game       string    // bookings.game
	Master     string    // bookings.master
	TimeStart  string    // bookings.time_start (empty when NULL)
	TimeEnd    string    // bookings.time_end (empty when NULL)
	IsPaid     bool      // bookings.is_paid
	CreatedAt  time.Time // bookings.created_at
}
