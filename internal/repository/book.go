package repository

import (
	"context"

	"book-rental/internal/domain"
)

// BookRepository exposes persistence operations for book listings.
type BookRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, book *domain.Book) (int64, error)
	// Update applies patch to the book owned by ownerID and returns the stored
	// result together with the row as it was before the change. It reports
	// domain.ErrNotFound for a missing book, domain.ErrForbidden when ownerID
	// is not the owner of record, then domain.ErrNoFields for an empty patch.
	Update(ctx context.Context, id, ownerID int64, patch domain.BookPatch) (updated, previous *domain.Book, err error)
	// Delete removes the book owned by ownerID together with its rentals and
	// returns the removed row. Errors as for Update.
	Delete(ctx context.Context, id, ownerID int64) (*domain.Book, error)
	Get(ctx context.Context, id int64) (*domain.Book, error)
	List(ctx context.Context) ([]domain.Book, error)
}
