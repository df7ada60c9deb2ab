package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-rental/internal/domain"
)

func Test_BookRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t, 1)
	ctx := context.Background()
	owner := s.givenUser(t, "owner")

	book := s.givenBook(t, owner, "Earthsea")

	got, err := s.books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Earthsea", got.Title)
	assert.Equal(t, "Ursula K. Le Guin", got.Author)
	assert.Equal(t, "1969-03-01", got.PublishedDate.Format(domain.PublishedDateLayout))
	assert.Equal(t, "/uploads/Earthsea.jpg", got.ImagePath)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, "owner", got.OwnerName)
	assert.False(t, got.Rented)
	assert.WithinDuration(t, time.Now(), got.PostedAt, time.Minute)

	_, err = s.books.Get(ctx, 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_BookRepository_CreateWithoutImage(t *testing.T) {
	s := newTestStore(t, 1)
	owner := s.givenUser(t, "owner")

	book := &domain.Book{Title: "Untitled", Author: "Anon", PublishedDate: time.Now(), OwnerID: owner.ID}
	_, err := s.books.Create(context.Background(), book)
	require.NoError(t, err)

	got, err := s.books.Get(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ImagePath)
}

func Test_BookRepository_ListNewestFirst(t *testing.T) {
	s := newTestStore(t, 1)
	alice := s.givenUser(t, "alice")
	bob := s.givenUser(t, "bob")

	first := s.givenBook(t, alice, "first")
	second := s.givenBook(t, bob, "second")
	third := s.givenBook(t, alice, "third")

	books, err := s.books.List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{books[0].ID, books[1].ID, books[2].ID})
	assert.Equal(t, "bob", books[1].OwnerName)
	assert.Equal(t, "alice", books[2].OwnerName)
}

func Test_BookRepository_UpdateAppliesOnlySuppliedFields(t *testing.T) {
	// setup
	s := newTestStore(t, 1)
	ctx := context.Background()
	owner := s.givenUser(t, "owner")
	book := s.givenBook(t, owner, "Old Title")
	title := "New Title"
	published := time.Date(1971, time.May, 4, 0, 0, 0, 0, time.UTC)

	// act
	updated, previous, err := s.books.Update(ctx, book.ID, owner.ID, domain.BookPatch{Title: &title, PublishedDate: &published})

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Old Title", previous.Title)
	assert.Equal(t, "1969-03-01", previous.PublishedDate.Format(domain.PublishedDateLayout))
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, "Ursula K. Le Guin", updated.Author)
	assert.Equal(t, "1971-05-04", updated.PublishedDate.Format(domain.PublishedDateLayout))
	assert.Equal(t, "/uploads/Old Title.jpg", updated.ImagePath)
	assert.Equal(t, owner.ID, updated.OwnerID)
	assert.Equal(t, "owner", updated.OwnerName)
}

func Test_BookRepository_UpdateChecks(t *testing.T) {
	s := newTestStore(t, 1)
	ctx := context.Background()
	owner := s.givenUser(t, "owner")
	stranger := s.givenUser(t, "stranger")
	book := s.givenBook(t, owner, "Guarded")
	before, err := s.books.Get(ctx, book.ID)
	require.NoError(t, err)
	title := "Hijacked"

	_, _, err = s.books.Update(ctx, book.ID, stranger.ID, domain.BookPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = s.books.Update(ctx, 4242, owner.ID, domain.BookPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = s.books.Update(ctx, book.ID, owner.ID, domain.BookPatch{})
	assert.ErrorIs(t, err, domain.ErrNoFields)

	// ownership is settled before the patch is looked at
	_, _, err = s.books.Update(ctx, book.ID, stranger.ID, domain.BookPatch{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = s.books.Update(ctx, 4242, owner.ID, domain.BookPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	after, err := s.books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed updates must not touch the row")
}

func Test_BookRepository_UpdateReturnsReplacedImage(t *testing.T) {
	// setup
	s := newTestStore(t, 1)
	ctx := context.Background()
	owner := s.givenUser(t, "owner")
	book := s.givenBook(t, owner, "Covers")
	first, second := "/uploads/first.png", "/uploads/second.png"

	// act
	_, previousA, errA := s.books.Update(ctx, book.ID, owner.ID, domain.BookPatch{ImagePath: &first})
	_, previousB, errB := s.books.Update(ctx, book.ID, owner.ID, domain.BookPatch{ImagePath: &second})

	// assert
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, "/uploads/Covers.jpg", previousA.ImagePath)
	assert.Equal(t, first, previousB.ImagePath, "each replacement sees the image it overwrote")
}

func Test_BookRepository_Delete(t *testing.T) {
	// setup
	s := newTestStore(t, 1)
	ctx := context.Background()
	owner := s.givenUser(t, "owner")
	stranger := s.givenUser(t, "stranger")
	book := s.givenBook(t, owner, "Doomed")
	_, err := s.rentals.Rent(ctx, book.ID, stranger.ID, time.Now())
	require.NoError(t, err)
	before, err := s.books.Get(ctx, book.ID)
	require.NoError(t, err)

	// act + assert: not the owner
	_, err = s.books.Delete(ctx, book.ID, stranger.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	after, err := s.books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// act + assert: missing
	_, err = s.books.Delete(ctx, 4242, owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// act + assert: owner
	deleted, err := s.books.Delete(ctx, book.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/Doomed.jpg", deleted.ImagePath)

	_, err = s.books.Get(ctx, book.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, s.rentalCount(t, book.ID), "rentals cascade with the book")
}
