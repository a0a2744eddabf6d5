package database

import (
	"database/sql"
	"fmt"
	"log"
)

// RunMigrations creates the reservation tables when they do not exist
// yet.  The unique keys on (show_id, seat_number) are load-bearing:
// they are the constraint backstop that resolves concurrent claims on
// the same seat, for locks and bookings alike.  The shows table holds
// externally managed capacity metadata the core only reads.
func RunMigrations(db *sql.DB) error {
	migrations := []string{
		createShowsTable,
		createSeatLocksTable,
		createBookingsTable,
	}
	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	log.Printf("database: migrations completed")
	return nil
}

const createShowsTable = `
CREATE TABLE IF NOT EXISTS shows (
    id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    seat_count INT NOT NULL,
    starts_at  DATETIME NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id)
) ENGINE=InnoDB;`

const createSeatLocksTable = `
CREATE TABLE IF NOT EXISTS seat_locks (
    id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    show_id     BIGINT UNSIGNED NOT NULL,
    seat_number INT NOT NULL,
    user_id     BIGINT UNSIGNED NOT NULL,
    expires_at  DATETIME NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uq_seat_locks_show_seat (show_id, seat_number),
    KEY idx_seat_locks_expires_at (expires_at),
    KEY idx_seat_locks_user_show (user_id, show_id)
) ENGINE=InnoDB;`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    show_id         BIGINT UNSIGNED NOT NULL,
    seat_number     INT NOT NULL,
    user_id         BIGINT UNSIGNED NOT NULL,
    payment_id      VARCHAR(200) NOT NULL,
    payment_gateway VARCHAR(50) NOT NULL,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uq_bookings_show_seat (show_id, seat_number),
    KEY idx_bookings_user (user_id),
    KEY idx_bookings_payment (show_id, user_id, payment_id)
) ENGINE=InnoDB;`
