package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-rental/internal/domain"
	"book-rental/internal/service"
)

func strPtr(s string) *string { return &s }

func imageUpload(name, body string) *service.ImageUpload {
	return &service.ImageUpload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func (f *fixture) imageFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.imageDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestBookService_CreateWithImage(t *testing.T) {
	f := newFixture(t)
	owner := f.givenUser(t, "owner")

	book, err := f.books.Create(context.Background(), owner.ID, service.CreateBookInput{
		Title:         "  Kindred ",
		Author:        "Octavia E. Butler",
		PublishedDate: "1979-06-01",
		Image:         imageUpload("cover.PNG", "png-bytes"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Kindred", book.Title)
	assert.False(t, book.Rented)
	assert.Equal(t, owner.ID, book.OwnerID)
	assert.Equal(t, "owner", book.OwnerName)
	assert.True(t, strings.HasPrefix(book.ImagePath, "/uploads/"))
	assert.True(t, strings.HasSuffix(book.ImagePath, ".png"))

	data, err := os.ReadFile(filepath.Join(f.imageDir, strings.TrimPrefix(book.ImagePath, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestBookService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.givenUser(t, "owner")
	ctx := context.Background()

	for _, in := range []service.CreateBookInput{
		{Author: "A", PublishedDate: "2000-01-01"},
		{Title: "T", PublishedDate: "2000-01-01"},
		{Title: "T", Author: "A"},
		{Title: "T", Author: "A", PublishedDate: "01/01/2000"},
		{Title: "T", Author: "A", PublishedDate: "2000-01-01", Image: imageUpload("virus.exe", "MZ")},
	} {
		_, err := f.books.Create(ctx, owner.ID, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", in)
	}

	books, err := f.books.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Empty(t, f.imageFiles(t))
}

func TestBookService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.givenUser(t, "owner")
	stranger := f.givenUser(t, "stranger")
	book, err := f.books.Create(ctx, owner.ID, service.CreateBookInput{
		Title: "Dawn", Author: "Octavia E. Butler", PublishedDate: "1987-05-01",
		Image: imageUpload("first.jpg", "first"),
	})
	require.NoError(t, err)

	t.Run("no fields", func(t *testing.T) {
		_, err := f.books.Update(ctx, book.ID, owner.ID, service.UpdateBookInput{Title: strPtr("  ")})
		assert.ErrorIs(t, err, domain.ErrNoFields)
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := f.books.Update(ctx, book.ID, stranger.ID, service.UpdateBookInput{
			Title: strPtr("Stolen"),
			Image: imageUpload("stolen.jpg", "stolen"),
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Len(t, f.imageFiles(t), 1, "no upload for rejected callers")

		after, err := f.books.Get(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, book, after)
	})

	t.Run("missing book", func(t *testing.T) {
		_, err := f.books.Update(ctx, 4242, owner.ID, service.UpdateBookInput{Title: strPtr("Ghost")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ownership before input checks", func(t *testing.T) {
		_, err := f.books.Update(ctx, book.ID, stranger.ID, service.UpdateBookInput{})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = f.books.Update(ctx, book.ID, stranger.ID, service.UpdateBookInput{PublishedDate: strPtr("nope")})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = f.books.Update(ctx, 4242, owner.ID, service.UpdateBookInput{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := f.books.Update(ctx, book.ID, owner.ID, service.UpdateBookInput{PublishedDate: strPtr("yesterday")})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("partial update replaces image", func(t *testing.T) {
		updated, err := f.books.Update(ctx, book.ID, owner.ID, service.UpdateBookInput{
			Author: strPtr("O. E. Butler"),
			Image:  imageUpload("second.png", "second"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Dawn", updated.Title)
		assert.Equal(t, "O. E. Butler", updated.Author)
		assert.NotEqual(t, book.ImagePath, updated.ImagePath)

		files := f.imageFiles(t)
		require.Len(t, files, 1, "old image is discarded")
		assert.True(t, strings.HasSuffix(updated.ImagePath, files[0]))
	})
}

func TestBookService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.givenUser(t, "owner")
	stranger := f.givenUser(t, "stranger")
	book, err := f.books.Create(ctx, owner.ID, service.CreateBookInput{
		Title: "Fledgling", Author: "Octavia E. Butler", PublishedDate: "2005-09-01",
		Image: imageUpload("cover.webp", "webp"),
	})
	require.NoError(t, err)

	_, _, err = f.books.Delete(ctx, book.ID, stranger.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, _, err = f.books.Delete(ctx, 4242, owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, f.imageFiles(t), 1)

	deleted, warnings, err := f.books.Delete(ctx, book.ID, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, book.ID, deleted.ID)
	assert.Empty(t, f.imageFiles(t))

	_, err = f.books.Get(ctx, book.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
