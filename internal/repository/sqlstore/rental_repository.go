package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"book-rental/internal/domain"
	"book-rental/internal/repository"
)

type rentalRow struct {
	ID         int64        `db:"id"`
	BookID     int64        `db:"book_id"`
	BookTitle  string       `db:"book_name"`
	RenterID   int64        `db:"user_id"`
	RenterName string       `db:"user_name"`
	RentedAt   time.Time    `db:"rental_date"`
	ReturnedAt sql.NullTime `db:"return_date"`
}

func (r rentalRow) toDomain() domain.Rental {
	rental := domain.Rental{
		ID:         r.ID,
		BookID:     r.BookID,
		BookTitle:  r.BookTitle,
		RenterID:   r.RenterID,
		RenterName: r.RenterName,
		RentedAt:   r.RentedAt.Local(),
	}
	if r.ReturnedAt.Valid {
		t := r.ReturnedAt.Time.Local()
		rental.ReturnedAt = &t
	}
	return rental
}

type RentalRepository struct {
	db *DB
}

func NewRentalRepository(db *DB) repository.RentalRepository {
	return &RentalRepository{db: db}
}

func (r *RentalRepository) Init(ctx context.Context) error {
	return execAll(ctx, r.db, r.db.dialect.rentalTable, "create rentals table")
}

// Rent opens a rental for renterID. The book row is locked before the
// decision and the rented flag is flipped with a conditional update, so two
// concurrent calls can never both observe the book as available.
func (r *RentalRepository) Rent(ctx context.Context, bookID, renterID int64, at time.Time) (*domain.Rental, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rent tx: %w", err)
	}
	defer tx.Rollback()

	state, title, err := r.lockBook(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckRent(*state, renterID); err != nil {
		return nil, err
	}

	rental := &domain.Rental{
		BookID:    bookID,
		BookTitle: title,
		RenterID:  renterID,
		RentedAt:  at.UTC(),
	}
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
INSERT INTO rentals (book_id, user_id, rental_date)
VALUES (?, ?, ?)
RETURNING id`),
		bookID,
		renterID,
		rental.RentedAt,
	).Scan(&rental.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyRented
		}
		return nil, fmt.Errorf("insert rental: %w", err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`
UPDATE books SET rented = TRUE
WHERE id = ? AND rented = FALSE`), bookID)
	if err != nil {
		return nil, fmt.Errorf("mark book rented: %w", err)
	}
	if aff, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("mark book rented rows affected: %w", err)
	} else if aff == 0 {
		return nil, domain.ErrAlreadyRented
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rent: %w", err)
	}
	return rental, nil
}

// Return closes renterID's open rental on the book. The book is locked first
// so rent and return always take locks in the same order.
func (r *RentalRepository) Return(ctx context.Context, bookID, renterID int64, at time.Time) (*domain.Rental, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin return tx: %w", err)
	}
	defer tx.Rollback()

	_, title, err := r.lockBook(ctx, tx, bookID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveRental
		}
		return nil, err
	}

	open, err := r.findOpen(ctx, tx, bookID, renterID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckReturn(open, renterID); err != nil {
		return nil, err
	}

	returnedAt := at.UTC()
	res, err := tx.ExecContext(ctx, tx.Rebind(`
UPDATE rentals SET return_date = ?
WHERE id = ? AND return_date IS NULL`), returnedAt, open.ID)
	if err != nil {
		return nil, fmt.Errorf("close rental: %w", err)
	}
	if aff, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("close rental rows affected: %w", err)
	} else if aff == 0 {
		return nil, domain.ErrNoActiveRental
	}

	res, err = tx.ExecContext(ctx, tx.Rebind(`
UPDATE books SET rented = FALSE
WHERE id = ? AND rented = TRUE`), bookID)
	if err != nil {
		return nil, fmt.Errorf("mark book available: %w", err)
	}
	if aff, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("mark book available rows affected: %w", err)
	} else if aff == 0 {
		return nil, fmt.Errorf("book %d has an open rental but is not flagged rented", bookID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit return: %w", err)
	}

	open.BookTitle = title
	open.ReturnedAt = &returnedAt
	return open, nil
}

func (r *RentalRepository) ListByBook(ctx context.Context, bookID int64) ([]domain.Rental, error) {
	return r.list(ctx, `WHERE r.book_id = ?`, bookID)
}

func (r *RentalRepository) ListByRenter(ctx context.Context, renterID int64) ([]domain.Rental, error) {
	return r.list(ctx, `WHERE r.user_id = ?`, renterID)
}

func (r *RentalRepository) list(ctx context.Context, where string, arg int64) ([]domain.Rental, error) {
	var rows []rentalRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
SELECT r.id, r.book_id, b.book_name, r.user_id, u.name AS user_name, r.rental_date, r.return_date
FROM rentals r
JOIN books b ON r.book_id = b.id
JOIN users u ON r.user_id = u.id
`+where+`
ORDER BY r.rental_date DESC, r.id DESC`), arg)
	if err != nil {
		return nil, fmt.Errorf("query rentals: %w", err)
	}

	rentals := make([]domain.Rental, len(rows))
	for i := range rows {
		rentals[i] = rows[i].toDomain()
	}
	return rentals, nil
}

func (r *RentalRepository) lockBook(ctx context.Context, tx *sqlx.Tx, bookID int64) (*domain.BookState, string, error) {
	var row struct {
		ID      int64  `db:"id"`
		Title   string `db:"book_name"`
		OwnerID int64  `db:"user_id"`
		Rented  bool   `db:"rented"`
	}
	err := tx.GetContext(ctx, &row, tx.Rebind(`
SELECT id, book_name, user_id, rented
FROM books
WHERE id = ?`+r.db.dialect.forUpdate), bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("book %d: %w", bookID, domain.ErrNotFound)
		}
		return nil, "", fmt.Errorf("lock book: %w", err)
	}

	return &domain.BookState{BookID: row.ID, OwnerID: row.OwnerID, Rented: row.Rented}, row.Title, nil
}

func (r *RentalRepository) findOpen(ctx context.Context, tx *sqlx.Tx, bookID, renterID int64) (*domain.Rental, error) {
	var row rentalRow
	err := tx.GetContext(ctx, &row, tx.Rebind(`
SELECT r.id, r.book_id, '' AS book_name, r.user_id, '' AS user_name, r.rental_date, r.return_date
FROM rentals r
WHERE r.book_id = ? AND r.user_id = ? AND r.return_date IS NULL`+r.db.dialect.forUpdate),
		bookID,
		renterID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open rental: %w", err)
	}

	rental := row.toDomain()
	return &rental, nil
}
