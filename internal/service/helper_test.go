package service_test

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"book-rental/internal/domain"
	"book-rental/internal/repository/sqlstore"
	"book-rental/internal/service"
	"book-rental/internal/storage"
)

type fixture struct {
	users    service.UserService
	books    service.BookService
	rentals  service.RentalService
	images   *storage.LocalService
	imageDir string
}

func newFixture(t testing.TB) *fixture {
	t.Helper()

	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver: sqlstore.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "rental.db"),
	})
	require.NoError(t, err, "error in arranging test data")
	t.Cleanup(func() { _ = db.Close() })

	userRepo := sqlstore.NewUserRepository(db)
	bookRepo := sqlstore.NewBookRepository(db)
	rentalRepo := sqlstore.NewRentalRepository(db)
	require.NoError(t, sqlstore.Init(ctx, userRepo, bookRepo, rentalRepo), "error in arranging test data")

	imageDir := t.TempDir()
	images, err := storage.NewLocalService(imageDir, "/uploads")
	require.NoError(t, err, "error in arranging test data")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &fixture{
		users:    service.NewUserService(userRepo),
		books:    service.NewBookService(bookRepo, images, logger),
		rentals:  service.NewRentalService(bookRepo, rentalRepo, logger),
		images:   images,
		imageDir: imageDir,
	}
}

func (f *fixture) givenUser(t testing.TB, name string) *domain.User {
	t.Helper()

	email := fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano())
	user, err := f.users.Register(context.Background(), name, email, "password")
	require.NoError(t, err, "error in arranging test data")

	return user
}

func (f *fixture) givenBook(t testing.TB, owner *domain.User, title string) *domain.Book {
	t.Helper()

	book, err := f.books.Create(context.Background(), owner.ID, service.CreateBookInput{
		Title:         title,
		Author:        "Octavia E. Butler",
		PublishedDate: "1993-10-01",
	})
	require.NoError(t, err, "error in arranging test data")

	return book
}
