package domain

import "time"

type BookStatus string

const (
	BookStatusAvailable BookStatus = "available"
	BookStatusRented    BookStatus = "rented"
)

// Rental records one loan of a book. ReturnedAt is nil while the loan is open.
type Rental struct {
	ID         int64
	BookID     int64
	BookTitle  string
	RenterID   int64
	RenterName string
	RentedAt   time.Time
	ReturnedAt *time.Time
}

// Open reports whether the book is still out on this rental.
func (r Rental) Open() bool {
	return r.ReturnedAt == nil
}

// BookState is the part of a book row the rental transitions decide on. It
// must be read inside the transaction that performs the transition.
type BookState struct {
	BookID  int64
	OwnerID int64
	Rented  bool
}

func (s BookState) Status() BookStatus {
	if s.Rented {
		return BookStatusRented
	}
	return BookStatusAvailable
}

// CheckRent decides whether renterID may move the book from Available to
// Rented. Ownership is checked first so owners always get ErrSelfRental.
func CheckRent(state BookState, renterID int64) error {
	if state.OwnerID == renterID {
		return ErrSelfRental
	}
	if state.Status() == BookStatusRented {
		return ErrAlreadyRented
	}
	return nil
}

// CheckReturn decides whether renterID may close the given open rental. A
// missing rental and a rental held by someone else are reported alike.
func CheckReturn(open *Rental, renterID int64) error {
	if open == nil || !open.Open() || open.RenterID != renterID {
		return ErrNoActiveRental
	}
	return nil
}
