package model

import "time"

// Participation tiers.  ChosenTier is the duration a user intends to
// attend; PaidTier is what they have actually paid for.  Paid tier gates
// the booking quota and the auto-pay behaviour of subsequent bookings.
const (
	TierUnpaid = 0 // paid_tier only: nothing paid yet
	TierOneDay = 1 // single festival day
	TierTwoDay = 2 // both festival days
)

// User represents a participant record as stored in the `users` table.
// A participant may arrive through the chat bot (real chat id) or through
// the web page before ever contacting the bot, in which case ChatID holds
// a synthetic negative placeholder so the unique chat_id column is never
// violated by "no id yet" users.
//
// Fields:
//
//	ID                 – primary key identifier.
//	ChatID             – chat identifier; negative when synthesized.
//	SessionID          – opaque web session id, unique when present.
//	Phone              – phone number, not guaranteed unique.
//	Username           – chat username, not guaranteed unique.
//	FirstName          – display name.
//	LastName           – optional surname.
//	ChosenTier         – intended participation tier (1 or 2 days).
//	TierConfirmed      – whether the user explicitly picked a tier.
//	PaidTier           – paid participation tier (0 = unpaid).
//	RegistrationNumber – assigned at most once on quota completion;
//	                     immutable for the lifetime of the user.
//	CreatedAt          – timestamp of creation.
//	UpdatedAt          – timestamp of last update.
type User struct {
	ID                 uint64    // users.id
	ChatID             int64     // users.chat_id
	SessionID          *string   // users.session_id (nullable)
	Phone              *string   // users.phone (nullable)
	Username           *string   // users.username (nullable)
	FirstName          string    // users.first_name
	LastName           *string   // users.last_name (nullable)
	ChosenTier         int       // users.chosen_tier
	TierConfirmed      bool      // users.tier_confirmed
	PaidTier           int       // users.paid_tier
	RegistrationNumber *int64    // users.registration_number (nullable)
	CreatedAt          time.Time // users.created_at
	UpdatedAt          time.Time // users.updated_at
}

// HasPaid reports whether the user has paid for any participation tier.
// Paid users have every subsequent booking auto-marked as paid.
func (u *User) HasPaid() bool {
	return u.PaidTier == TierOneDay || u.PaidTier == TierTwoDay
}
