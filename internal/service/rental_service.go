package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"book-rental/internal/domain"
	"book-rental/internal/repository"
)

// RentalService moves books between Available and Rented.
type RentalService interface {
	Rent(ctx context.Context, bookID, renterID int64) (*domain.Rental, error)
	Return(ctx context.Context, bookID, renterID int64) (*domain.Rental, error)
	// History lists every rental of a book, newest first.
	History(ctx context.Context, bookID int64) ([]domain.Rental, error)
	ListForRenter(ctx context.Context, renterID int64) ([]domain.Rental, error)
}

type rentalService struct {
	books   repository.BookRepository
	rentals repository.RentalRepository
	logger  *logrus.Logger
	now     func() time.Time
}

func NewRentalService(books repository.BookRepository, rentals repository.RentalRepository, logger *logrus.Logger) RentalService {
	if logger == nil {
		logger = logrus.New()
	}
	return &rentalService{
		books:   books,
		rentals: rentals,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *rentalService) Rent(ctx context.Context, bookID, renterID int64) (*domain.Rental, error) {
	rental, err := s.rentals.Rent(ctx, bookID, renterID, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"book_id":   bookID,
		"renter_id": renterID,
		"rental_id": rental.ID,
	}).Info("book rented")
	return rental, nil
}

func (s *rentalService) Return(ctx context.Context, bookID, renterID int64) (*domain.Rental, error) {
	rental, err := s.rentals.Return(ctx, bookID, renterID, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"book_id":   bookID,
		"renter_id": renterID,
		"rental_id": rental.ID,
	}).Info("book returned")
	return rental, nil
}

func (s *rentalService) History(ctx context.Context, bookID int64) ([]domain.Rental, error) {
	if _, err := s.books.Get(ctx, bookID); err != nil {
		return nil, err
	}
	return s.rentals.ListByBook(ctx, bookID)
}

func (s *rentalService) ListForRenter(ctx context.Context, renterID int64) ([]domain.Rental, error) {
	return s.rentals.ListByRenter(ctx, renterID)
}
