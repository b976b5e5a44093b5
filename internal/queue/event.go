// Package queue defines the outbound domain events and the message broker
// plumbing that delivers them.  Events are produced by the registration
// core, returned to the handler as plain values, and only published after
// the owning transaction committed; delivery is best-effort and never
// feeds back into the correctness of a booking.
package queue

// Queue names.  Each event type maps to its own durable queue.
const (
	QueueBookingCreated        = "booking.created"
	QueueBookingCancelled      = "booking.cancelled"
	QueueRegistrationCompleted = "registration.completed"
)

// Event is implemented by every outbound payload and names the queue the
// payload is published to.
type Event interface {
	Queue() string
}

// BookingCreatedEvent is published after a successful seat claim.  When
// AutoPaid is false the booking reference gives a human approver enough
// information to later confirm or cancel the booking through the decide
// endpoint.
type BookingCreatedEvent struct {
	BookingRef string `json:"booking_ref"`
	ChatID     int64  `json:"chat_id"`
	Name       string `json:"name"`
	Game       string `json:"game"`
	Master     string `json:"master"`
	Day        int    `json:"day"`
	Line       int    `json:"line"`
	SeatID     int    `json:"seat_id"`
	AutoPaid   bool   `json:"auto_paid"`
	CreatedAt  string `json:"created_at"`
}

func (BookingCreatedEvent) Queue() string { return QueueBookingCreated }

// BookingCancelledEvent notifies the affected user that a booking was
// released, either by themselves or by a rejected payment decision.
type BookingCancelledEvent struct {
	BookingRef string `json:"booking_ref"`
	ChatID     int64  `json:"chat_id"`
}

func (BookingCancelledEvent) Queue() string { return QueueBookingCancelled }

// CellGame is one itinerary entry: the game title of the earliest-created
// booking in a (day, line) schedule cell.
type CellGame struct {
	Day  int    `json:"day"`
	Line int    `json:"line"`
	Game string `json:"game"`
}

// RegistrationCompletedEvent is published exactly once per user, when the
// paid tier's quota of bookings is filled and a registration number has
// been assigned.  Games lists the user's itinerary in schedule order.
type RegistrationCompletedEvent struct {
	ChatID             int64      `json:"chat_id"`
	RegistrationNumber int64      `json:"registration_number"`
	ChosenTier         int        `json:"chosen_tier"`
	Games              []CellGame `json:"games"`
}

func (RegistrationCompletedEvent) Queue() string { return QueueRegistrationCompleted }
