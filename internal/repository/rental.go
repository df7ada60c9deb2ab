package repository

import (
	"context"
	"time"

	"book-rental/internal/domain"
)

// RentalRepository runs the rental transitions. Rent and Return each execute
// as a single transaction that locks the book before deciding, so either the
// rental row and the book's rented flag change together or nothing changes.
type RentalRepository interface {
	Init(ctx context.Context) error
	Rent(ctx context.Context, bookID, renterID int64, at time.Time) (*domain.Rental, error)
	Return(ctx context.Context, bookID, renterID int64, at time.Time) (*domain.Rental, error)
	ListByBook(ctx context.Context, bookID int64) ([]domain.Rental, error)
	ListByRenter(ctx context.Context, renterID int64) ([]domain.Rental, error)
}
