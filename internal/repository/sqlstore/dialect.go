package sqlstore

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// dialect holds the statements that differ between sqlite and postgres.
// Everything else is written once with ? placeholders and rebound by sqlx.
type dialect struct {
	name        string // goqu dialect
	forUpdate   string
	usersTable  []string
	booksTable  []string
	rentalTable []string
}

var sqliteDialect = dialect{
	name: "sqlite3",
	// sqlite has no row locks; _txlock=immediate serialises writers instead
	forUpdate: "",
	usersTable: []string{`
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL
)`},
	booksTable: []string{`
CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	book_name TEXT NOT NULL,
	author TEXT NOT NULL,
	published_date DATE NOT NULL,
	posted_date DATETIME NOT NULL,
	image_path TEXT NULL,
	rented BOOLEAN NOT NULL DEFAULT FALSE,
	user_id INTEGER NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
)`,
		`CREATE INDEX IF NOT EXISTS idx_books_posted_date ON books(posted_date)`,
	},
	rentalTable: []string{`
CREATE TABLE IF NOT EXISTS rentals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	book_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	rental_date DATETIME NOT NULL,
	return_date DATETIME NULL,
	FOREIGN KEY(book_id) REFERENCES books(id) ON DELETE CASCADE,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
)`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_user_id ON rentals(user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rentals_open_book ON rentals(book_id) WHERE return_date IS NULL`,
	},
}

var postgresDialect = dialect{
	name:      "postgres",
	forUpdate: " FOR UPDATE",
	usersTable: []string{`
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`},
	booksTable: []string{`
CREATE TABLE IF NOT EXISTS books (
	id BIGSERIAL PRIMARY KEY,
	book_name TEXT NOT NULL,
	author TEXT NOT NULL,
	published_date DATE NOT NULL,
	posted_date TIMESTAMPTZ NOT NULL,
	image_path TEXT NULL,
	rented BOOLEAN NOT NULL DEFAULT FALSE,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE
)`,
		`CREATE INDEX IF NOT EXISTS idx_books_posted_date ON books(posted_date)`,
	},
	rentalTable: []string{`
CREATE TABLE IF NOT EXISTS rentals (
	id BIGSERIAL PRIMARY KEY,
	book_id BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	rental_date TIMESTAMPTZ NOT NULL,
	return_date TIMESTAMPTZ NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_user_id ON rentals(user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rentals_open_book ON rentals(book_id) WHERE return_date IS NULL`,
	},
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
