package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL for every table the service owns, in dependency
// order.  The statements are idempotent so EnsureSchema can run on every
// startup.  The UNIQUE keys are load-bearing: uq_slot_seat is the source
// of truth for seat exclusivity and uq_user_cell backs the one-booking-
// per-schedule-cell rule, both enforced at insert time rather than by a
// prior read.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		chat_id             BIGINT NOT NULL,
		session_id          CHAR(36) NULL,
		phone               VARCHAR(50) NULL,
		username            VARCHAR(255) NULL,
		first_name          VARCHAR(255) NOT NULL DEFAULT '',
		last_name           VARCHAR(255) NULL,
		chosen_tier         TINYINT NOT NULL DEFAULT 2,
		tier_confirmed      TINYINT(1) NOT NULL DEFAULT 0,
		paid_tier           TINYINT NOT NULL DEFAULT 0,
		registration_number BIGINT NULL,
		created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_chat_id (chat_id),
		UNIQUE KEY uq_session_id (session_id),
		UNIQUE KEY uq_registration_number (registration_number),
		KEY idx_phone (phone)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id     BIGINT UNSIGNED NOT NULL,
		booking_ref VARCHAR(64) NOT NULL,
		slot_id     VARCHAR(255) NOT NULL,
		seat_id     INT NOT NULL,
		day         INT NOT NULL,
		line        INT NOT NULL,
		game        VARCHAR(255) NOT NULL DEFAULT '',
		master      VARCHAR(255) NOT NULL DEFAULT '',
		time_start  TIME NULL,
		time_end    TIME NULL,
		is_paid     TINYINT(1) NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_booking_ref (booking_ref),
		UNIQUE KEY uq_slot_seat (slot_id, seat_id),
		UNIQUE KEY uq_user_cell (user_id, day, line),
		KEY idx_slot (slot_id),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id)
			REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the application tables when they do not yet exist.
// It is executed once at startup before the HTTP server begins accepting
// requests.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
