package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"book-rental/internal/domain"
	"book-rental/internal/repository"
)

type testStore struct {
	db      *DB
	users   repository.UserRepository
	books   repository.BookRepository
	rentals repository.RentalRepository
}

func newTestStore(t testing.TB, maxOpenConns int) *testStore {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, Options{
		Driver:       DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "rental.db"),
		MaxOpenConns: maxOpenConns,
		BusyTimeout:  10 * time.Second,
	})
	require.NoError(t, err, "error in arranging test data")
	t.Cleanup(func() { _ = db.Close() })

	s := &testStore{
		db:      db,
		users:   NewUserRepository(db),
		books:   NewBookRepository(db),
		rentals: NewRentalRepository(db),
	}
	require.NoError(t, Init(ctx, s.users, s.books, s.rentals), "error in arranging test data")

	return s
}

func (s *testStore) givenUser(t testing.TB, name string) *domain.User {
	t.Helper()

	user := &domain.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano()),
		PasswordHash: "hash",
	}
	_, err := s.users.Create(context.Background(), user)
	require.NoError(t, err, "error in arranging test data")

	return user
}

func (s *testStore) givenBook(t testing.TB, owner *domain.User, title string) *domain.Book {
	t.Helper()

	book := &domain.Book{
		Title:         title,
		Author:        "Ursula K. Le Guin",
		PublishedDate: time.Date(1969, time.March, 1, 0, 0, 0, 0, time.UTC),
		ImagePath:     "/uploads/" + title + ".jpg",
		OwnerID:       owner.ID,
	}
	_, err := s.books.Create(context.Background(), book)
	require.NoError(t, err, "error in arranging test data")

	return book
}

func (s *testStore) openRentalCount(t testing.TB, bookID int64) int {
	t.Helper()

	var n int
	err := s.db.GetContext(context.Background(), &n, s.db.Rebind(
		`SELECT COUNT(*) FROM rentals WHERE book_id = ? AND return_date IS NULL`), bookID)
	require.NoError(t, err)

	return n
}

func (s *testStore) rentalCount(t testing.TB, bookID int64) int {
	t.Helper()

	var n int
	err := s.db.GetContext(context.Background(), &n, s.db.Rebind(
		`SELECT COUNT(*) FROM rentals WHERE book_id = ?`), bookID)
	require.NoError(t, err)

	return n
}

// requireRentedFlagConsistent checks that every book is flagged rented
// exactly when an open rental references it.
func (s *testStore) requireRentedFlagConsistent(t testing.TB) {
	t.Helper()

	var broken []int64
	err := s.db.SelectContext(context.Background(), &broken, `
SELECT b.id
FROM books b
WHERE (CASE WHEN b.rented THEN 1 ELSE 0 END) <>
      (CASE WHEN EXISTS (SELECT 1 FROM rentals r WHERE r.book_id = b.id AND r.return_date IS NULL) THEN 1 ELSE 0 END)`)
	require.NoError(t, err)
	require.Empty(t, broken, "books whose rented flag disagrees with their open rentals")
}
