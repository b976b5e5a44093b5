package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var userTestColumns = []string{
	"id", "chat_id", "session_id", "phone", "username", "first_name", "last_name",
	"chosen_tier", "tier_confirmed", "paid_tier", "registration_number", "created_at", "updated_at",
}

func userTestRow(id int64, chatID int64, sessionID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userTestColumns).
		AddRow(id, chatID, sessionID, nil, nil, "Alice", nil, 2, true, 0, nil, now, now)
}

func dupErr(key string) error {
	return errors.New("Error 1062 (23000): Duplicate entry 'x' for key 'users." + key + "'")
}

func TestFindForUpdateTxNoMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`session_id = \? LIMIT 1 FOR UPDATE`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userTestColumns))

	tx, err := db.Begin()
	require.NoError(t, err)

	_, err = NewUserRepo(db).FindForUpdateTx(context.Background(), tx, Identity{SessionID: "missing"})
	require.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A request carrying both a session id and a chat id can match a
// placeholder row by session while a different row already owns the chat
// id. The adoption must be skipped, not fail the whole request.
func TestResolveOrCreateKeepsPlaceholderWhenChatIDOwnedElsewhere(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	chatID := int64(123)

	mock.ExpectBegin()
	mock.ExpectQuery(`session_id = \? LIMIT 1 FOR UPDATE`).
		WithArgs("web-session").
		WillReturnRows(userTestRow(7, -3, "web-session"))
	mock.ExpectExec(`UPDATE users SET chat_id = \? WHERE id = \?`).
		WillReturnError(dupErr("uq_chat_id"))

	tx, err := db.Begin()
	require.NoError(t, err)

	u, err := NewUserRepo(db).ResolveOrCreateTx(context.Background(), tx, Identity{
		SessionID: "web-session",
		ChatID:    &chatID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(-3), u.ChatID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Two new web-only users racing to create themselves can synthesize the
// same negative placeholder. The loser must pick a fresh one and retry the
// insert; a lookup would find nothing because its own session id was never
// written.
func TestResolveOrCreateRetriesPlaceholderCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`session_id = \? LIMIT 1 FOR UPDATE`).
		WithArgs("s2").
		WillReturnRows(sqlmock.NewRows(userTestColumns))
	mock.ExpectQuery(`SELECT chat_id FROM users ORDER BY chat_id ASC LIMIT 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"chat_id"}).AddRow(-4))
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(int64(-5), "s2", nil, nil, "Bob", nil).
		WillReturnError(dupErr("uq_chat_id"))
	mock.ExpectQuery(`SELECT chat_id FROM users ORDER BY chat_id ASC LIMIT 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"chat_id"}).AddRow(-5))
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(int64(-6), "s2", nil, nil, "Bob", nil).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(`WHERE id = \? LIMIT 1`).
		WillReturnRows(userTestRow(9, -6, "s2"))

	tx, err := db.Begin()
	require.NoError(t, err)

	u, err := NewUserRepo(db).ResolveOrCreateTx(context.Background(), tx, Identity{
		SessionID: "s2",
		FirstName: "Bob",
	})
	require.NoError(t, err)
	require.Equal(t, uint64(9), u.ID)
	require.Equal(t, int64(-6), u.ChatID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A duplicate on the same identity (another request created this user
// first) is still recovered as a lookup, not a retry.
func TestResolveOrCreateRecoversIdentityDuplicateAsLookup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`session_id = \? LIMIT 1 FOR UPDATE`).
		WithArgs("s3").
		WillReturnRows(sqlmock.NewRows(userTestColumns))
	mock.ExpectQuery(`SELECT chat_id FROM users ORDER BY chat_id ASC LIMIT 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"chat_id"}).AddRow(-1))
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(dupErr("uq_session_id"))
	mock.ExpectQuery(`session_id = \? LIMIT 1 FOR UPDATE`).
		WithArgs("s3").
		WillReturnRows(userTestRow(4, -2, "s3"))

	tx, err := db.Begin()
	require.NoError(t, err)

	u, err := NewUserRepo(db).ResolveOrCreateTx(context.Background(), tx, Identity{SessionID: "s3"})
	require.NoError(t, err)
	require.Equal(t, uint64(4), u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
