package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"book-rental/internal/domain"
	"book-rental/internal/repository"
)

const selectBookWithOwner = `
SELECT b.id, b.book_name, b.author, b.published_date, b.posted_date, b.image_path, b.rented, b.user_id,
       u.name AS user_name
FROM books b
JOIN users u ON b.user_id = u.id`

type bookRow struct {
	ID            int64          `db:"id"`
	Title         string         `db:"book_name"`
	Author        string         `db:"author"`
	PublishedDate time.Time      `db:"published_date"`
	PostedAt      time.Time      `db:"posted_date"`
	ImagePath     sql.NullString `db:"image_path"`
	Rented        bool           `db:"rented"`
	OwnerID       int64          `db:"user_id"`
	OwnerName     string         `db:"user_name"`
}

func (r bookRow) toDomain() domain.Book {
	return domain.Book{
		ID:            r.ID,
		Title:         r.Title,
		Author:        r.Author,
		PublishedDate: r.PublishedDate.UTC(),
		PostedAt:      r.PostedAt.Local(),
		ImagePath:     r.ImagePath.String,
		Rented:        r.Rented,
		OwnerID:       r.OwnerID,
		OwnerName:     r.OwnerName,
	}
}

type BookRepository struct {
	db *DB
}

func NewBookRepository(db *DB) repository.BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Init(ctx context.Context) error {
	return execAll(ctx, r.db, r.db.dialect.booksTable, "create books table")
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (int64, error) {
	book.PostedAt = time.Now().UTC()
	book.Rented = false

	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
INSERT INTO books (book_name, author, published_date, posted_date, image_path, rented, user_id)
VALUES (?, ?, ?, ?, ?, FALSE, ?)
RETURNING id`),
		book.Title,
		book.Author,
		book.PublishedDate.UTC(),
		book.PostedAt,
		nullString(book.ImagePath),
		book.OwnerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	book.ID = id
	return id, nil
}

func (r *BookRepository) Update(ctx context.Context, id, ownerID int64, patch domain.BookPatch) (*domain.Book, *domain.Book, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	previous, err := r.lockOwned(ctx, tx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if patch.Empty() {
		return nil, nil, domain.ErrNoFields
	}

	query, args, err := goqu.Dialect(r.db.dialect.name).
		Update("books").
		Set(patchRecord(patch)).
		Where(goqu.C("id").Eq(id), goqu.C("user_id").Eq(ownerID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, nil, fmt.Errorf("build book update: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("update book: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("book update rows affected: %w", err)
	}
	if aff == 0 {
		return nil, nil, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
	}

	book, err := getBook(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit book update: %w", err)
	}
	return book, previous, nil
}

func (r *BookRepository) Delete(ctx context.Context, id, ownerID int64) (*domain.Book, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	book, err := r.lockOwned(ctx, tx, id, ownerID)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM books WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("delete book: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("book delete rows affected: %w", err)
	}
	if aff == 0 {
		return nil, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit book delete: %w", err)
	}
	return book, nil
}

func (r *BookRepository) Get(ctx context.Context, id int64) (*domain.Book, error) {
	return getBook(ctx, r.db, id)
}

func (r *BookRepository) List(ctx context.Context) ([]domain.Book, error) {
	var rows []bookRow
	if err := r.db.SelectContext(ctx, &rows, selectBookWithOwner+`
ORDER BY b.posted_date DESC, b.id DESC`); err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}

	books := make([]domain.Book, len(rows))
	for i := range rows {
		books[i] = rows[i].toDomain()
	}
	return books, nil
}

// lockOwned reads the bare book row under the transaction's lock and checks
// existence before ownership, so callers can tell NotFound from Forbidden.
func (r *BookRepository) lockOwned(ctx context.Context, tx *sqlx.Tx, id, ownerID int64) (*domain.Book, error) {
	var row bookRow
	err := tx.GetContext(ctx, &row, tx.Rebind(`
SELECT id, book_name, author, published_date, posted_date, image_path, rented, user_id, '' AS user_name
FROM books
WHERE id = ?`+r.db.dialect.forUpdate),
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("lock book: %w", err)
	}
	if row.OwnerID != ownerID {
		return nil, fmt.Errorf("book %d: %w", id, domain.ErrForbidden)
	}

	book := row.toDomain()
	return &book, nil
}

// queryer is satisfied by both *DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func getBook(ctx context.Context, q queryer, id int64) (*domain.Book, error) {
	var row bookRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(selectBookWithOwner+`
WHERE b.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	book := row.toDomain()
	return &book, nil
}

func patchRecord(patch domain.BookPatch) goqu.Record {
	rec := goqu.Record{}
	if patch.Title != nil {
		rec["book_name"] = *patch.Title
	}
	if patch.Author != nil {
		rec["author"] = *patch.Author
	}
	if patch.PublishedDate != nil {
		rec["published_date"] = patch.PublishedDate.UTC()
	}
	if patch.ImagePath != nil {
		rec["image_path"] = nullString(*patch.ImagePath)
	}
	return rec
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
