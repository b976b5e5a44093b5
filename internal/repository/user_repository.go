package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-registration/internal/model"
)

const userColumns = `id, chat_id, session_id, phone, username, first_name, last_name,
       chosen_tier, tier_confirmed, paid_tier, registration_number, created_at, updated_at`

// Identity carries the weak identifiers and profile hints supplied with a
// booking or profile request.  Empty strings and nil pointers mean "not
// provided".  Resolution strength is session id, then chat id, then phone;
// the first matching identifier wins and weaker ones are not consulted.
type Identity struct {
	ChatID    *int64 // chat identifier, strongest after session id
	SessionID string // opaque web session id, strongest identifier
	Phone     string // phone number, weakest identifier
	Username  string // profile hint only, never used for matching
	FirstName string // profile hint only
	LastName  string // profile hint only
}

// UserRepo provides data access to the users table.  Identity resolution
// and creation run inside a caller-supplied transaction so that two
// near-simultaneous requests with the same fresh identifiers cannot create
// two users: matched rows are locked FOR UPDATE and a racing insert is
// retried as a lookup when the unique key fires.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var sessionID, phone, username, lastName sql.NullString
	var regNumber sql.NullInt64
	err := row.Scan(
		&u.ID, &u.ChatID, &sessionID, &phone, &username, &u.FirstName, &lastName,
		&u.ChosenTier, &u.TierConfirmed, &u.PaidTier, &regNumber, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sessionID.Valid {
		s := sessionID.String
		u.SessionID = &s
	}
	if phone.Valid {
		p := phone.String
		u.Phone = &p
	}
	if username.Valid {
		n := username.String
		u.Username = &n
	}
	if lastName.Valid {
		ln := lastName.String
		u.LastName = &ln
	}
	if regNumber.Valid {
		n := regNumber.Int64
		u.RegistrationNumber = &n
	}
	return &u, nil
}

// FindForUpdateTx resolves a user by the strongest available identifier and
// locks the matched row.  ErrUserNotFound is returned when nothing matches.
func (r *UserRepo) FindForUpdateTx(ctx context.Context, tx *sql.Tx, ident Identity) (*model.User, error) {
	type probe struct {
		where string
		arg   interface{}
	}
	var probes []probe
	if ident.SessionID != "" {
		probes = append(probes, probe{"session_id = ?", ident.SessionID})
	}
	if ident.ChatID != nil {
		probes = append(probes, probe{"chat_id = ?", *ident.ChatID})
	}
	if ident.Phone != "" {
		probes = append(probes, probe{"phone = ?", ident.Phone})
	}
	if len(probes) == 0 {
		return nil, ErrUserNotFound
	}
	for _, p := range probes {
		q := `SELECT ` + userColumns + ` FROM users WHERE ` + p.where + ` LIMIT 1 FOR UPDATE`
		u, err := scanUser(tx.QueryRowContext(ctx, q, p.arg))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, ErrUserNotFound
}

// ResolveOrCreateTx finds the user matching the supplied identifiers or
// creates one when no identifier matches.  On a match, non-empty profile
// hints that differ from the stored values are merged into the record; a
// known value is never overwritten with an empty one.  When no chat id was
// supplied, a unique negative placeholder is synthesized so the chat_id
// unique key is never violated by web-only users.  A duplicate-key error
// during the insert is recovered from by its cause: a colliding identity
// (session id, or a real chat id) means another request created this user
// first and the insert is retried as a lookup; a colliding placeholder was
// picked by a racing transaction for a different user, so a fresh one is
// synthesized and the insert retried.
func (r *UserRepo) ResolveOrCreateTx(ctx context.Context, tx *sql.Tx, ident Identity) (*model.User, error) {
	u, err := r.FindForUpdateTx(ctx, tx, ident)
	if err == nil {
		return r.mergeProfileTx(ctx, tx, u, ident)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		chatID, err := r.chatIDForInsertTx(ctx, tx, ident)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (chat_id, session_id, phone, username, first_name, last_name)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			chatID, nullStr(ident.SessionID), nullStr(ident.Phone), nullStr(ident.Username),
			ident.FirstName, nullStr(ident.LastName),
		)
		if err == nil {
			id, err := res.LastInsertId()
			if err != nil {
				return nil, err
			}
			return r.GetByIDTx(ctx, tx, uint64(id))
		}
		if ident.ChatID == nil && isDuplicateOf(err, "uq_chat_id") {
			// The synthesized placeholder collided with one picked by a
			// racing transaction for a different new user.  Looking our own
			// identity up would find nothing, so pick a fresh placeholder.
			continue
		}
		if isDuplicateOf(err, "uq_chat_id") || isDuplicateOf(err, "uq_session_id") {
			// Another transaction inserted the same identity between our
			// lookup and the insert.  The row now exists, so resolve again.
			return r.FindForUpdateTx(ctx, tx, ident)
		}
		return nil, err
	}
	return nil, errors.New("placeholder chat id contention not resolved")
}

// chatIDForInsertTx returns the chat id to store for a new user: the real
// one when supplied, otherwise the next free negative placeholder.  The
// lowest chat id is taken with a locking read so a retry after a placeholder
// collision observes the row the winning transaction committed instead of
// this transaction's original snapshot.
func (r *UserRepo) chatIDForInsertTx(ctx context.Context, tx *sql.Tx, ident Identity) (int64, error) {
	if ident.ChatID != nil {
		return *ident.ChatID, nil
	}
	var lowest int64
	err := tx.QueryRowContext(ctx,
		`SELECT chat_id FROM users ORDER BY chat_id ASC LIMIT 1 FOR UPDATE`,
	).Scan(&lowest)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	if lowest >= 0 {
		return -1, nil
	}
	return lowest - 1, nil
}

// mergeProfileTx updates the locked user record with any non-empty hints
// that differ from the stored values. Hints never blank a stored field:
// a web request without a username must not erase one learned from chat.
func (r *UserRepo) mergeProfileTx(ctx context.Context, tx *sql.Tx, u *model.User, ident Identity) (*model.User, error) {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if ident.Phone != "" && (u.Phone == nil || *u.Phone != ident.Phone) {
		sets = append(sets, "phone = ?")
		args = append(args, ident.Phone)
	}
	if ident.Username != "" && (u.Username == nil || *u.Username != ident.Username) {
		sets = append(sets, "username = ?")
		args = append(args, ident.Username)
	}
	if ident.FirstName != "" && u.FirstName != ident.FirstName {
		sets = append(sets, "first_name = ?")
		args = append(args, ident.FirstName)
	}
	if ident.LastName != "" && (u.LastName == nil || *u.LastName != ident.LastName) {
		sets = append(sets, "last_name = ?")
		args = append(args, ident.LastName)
	}
	changed := false
	if len(sets) > 0 {
		args = append(args, u.ID)
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
		); err != nil {
			return nil, err
		}
		changed = true
	}
	// A real chat id supersedes a synthesized placeholder once the web user
	// finally contacts the bot.  The adoption runs as its own statement:
	// when a different row already carries that chat id the unique key
	// fires, and the request proceeds with the matched row keeping its
	// placeholder rather than failing.
	if ident.ChatID != nil && u.ChatID < 0 && *ident.ChatID > 0 {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET chat_id = ? WHERE id = ?`, *ident.ChatID, u.ID)
		switch {
		case err == nil:
			changed = true
		case isDuplicateOf(err, "uq_chat_id"):
			// keep the placeholder
		default:
			return nil, err
		}
	}
	if !changed {
		return u, nil
	}
	return r.GetByIDTx(ctx, tx, u.ID)
}

// GetByIDTx fetches a user by primary key within a transaction.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.User, error) {
	return scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
}

// LockByIDTx re-reads a user by primary key with an exclusive row lock.
// Registration-number assignment requires the lock so two concurrent
// completions cannot both read the same maximum.
func (r *UserRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.User, error) {
	return scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1 FOR UPDATE`, id))
}

// Find resolves a user outside a transaction for read-only views such as
// the profile endpoint.  Resolution order matches FindForUpdateTx.
func (r *UserRepo) Find(ctx context.Context, ident Identity) (*model.User, error) {
	type probe struct {
		where string
		arg   interface{}
	}
	var probes []probe
	if ident.SessionID != "" {
		probes = append(probes, probe{"session_id = ?", ident.SessionID})
	}
	if ident.ChatID != nil {
		probes = append(probes, probe{"chat_id = ?", *ident.ChatID})
	}
	if ident.Phone != "" {
		probes = append(probes, probe{"phone = ?", ident.Phone})
	}
	if len(probes) == 0 {
		return nil, ErrUserNotFound
	}
	for _, p := range probes {
		u, err := scanUser(r.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE `+p.where+` LIMIT 1`, p.arg))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, ErrUserNotFound
}

// SetChosenTierTx persists a tier change together with the confirmation
// flag.  The caller has already validated the change against the lock-in
// rule.
func (r *UserRepo) SetChosenTierTx(ctx context.Context, tx *sql.Tx, userID uint64, tier int, confirmed bool) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET chosen_tier = ?, tier_confirmed = ? WHERE id = ?`,
		tier, confirmed, userID)
	return err
}

// SetPaidTierTx records a confirmed tier payment for the user.
func (r *UserRepo) SetPaidTierTx(ctx context.Context, tx *sql.Tx, userID uint64, paidTier int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET paid_tier = ? WHERE id = ?`, paidTier, userID)
	return err
}

// SetRegistrationNumberTx writes the assigned number.  The WHERE clause
// guards immutability: a row that already carries a number is not touched.
// A duplicate on the registration_number unique key means a concurrent
// completion claimed the same number first; ErrRegNumberTaken tells the
// issuer to re-read the maximum and try the next one.
func (r *UserRepo) SetRegistrationNumberTx(ctx context.Context, tx *sql.Tx, userID uint64, number int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET registration_number = ? WHERE id = ? AND registration_number IS NULL`,
		number, userID)
	if err != nil {
		if isDuplicateOf(err, "uq_registration_number") {
			return ErrRegNumberTaken
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("registration number already assigned")
	}
	return nil
}

// MaxRegistrationNumberTx returns the highest number assigned so far, or
// ok=false when no user has completed registration yet.  The top row is
// read FOR UPDATE: a plain read would re-serve this transaction's original
// snapshot after a lost assignment race, recomputing the same number on
// every retry, and the lock also serializes concurrent completions so the
// first attempt normally wins outright.
func (r *UserRepo) MaxRegistrationNumberTx(ctx context.Context, tx *sql.Tx) (int64, bool, error) {
	var max int64
	err := tx.QueryRowContext(ctx,
		`SELECT registration_number FROM users
		 WHERE registration_number IS NOT NULL
		 ORDER BY registration_number DESC LIMIT 1 FOR UPDATE`,
	).Scan(&max)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return max, true, nil
}

// nullStr converts an empty string to a SQL NULL.
func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
