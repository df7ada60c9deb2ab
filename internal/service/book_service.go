package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"book-rental/internal/domain"
	"book-rental/internal/repository"
	"book-rental/internal/storage"
)

var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// ImageUpload is a cover image received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CreateBookInput holds the raw form values of a new listing.
type CreateBookInput struct {
	Title         string
	Author        string
	PublishedDate string
	Image         *ImageUpload
}

// UpdateBookInput holds a partial update; nil or blank fields are ignored.
type UpdateBookInput struct {
	Title         *string
	Author        *string
	PublishedDate *string
	Image         *ImageUpload
}

// BookService manages book listings on behalf of their owners.
type BookService interface {
	Create(ctx context.Context, ownerID int64, in CreateBookInput) (*domain.Book, error)
	Update(ctx context.Context, bookID, callerID int64, in UpdateBookInput) (*domain.Book, error)
	// Delete removes the listing and returns it together with warnings about
	// cleanup steps that failed after the row was gone.
	Delete(ctx context.Context, bookID, callerID int64) (*domain.Book, []string, error)
	List(ctx context.Context) ([]domain.Book, error)
	Get(ctx context.Context, id int64) (*domain.Book, error)
}

type bookService struct {
	books  repository.BookRepository
	images storage.Service
	logger *logrus.Logger
}

func NewBookService(books repository.BookRepository, images storage.Service, logger *logrus.Logger) BookService {
	if logger == nil {
		logger = logrus.New()
	}
	return &bookService{
		books:  books,
		images: images,
		logger: logger,
	}
}

func (s *bookService) Create(ctx context.Context, ownerID int64, in CreateBookInput) (*domain.Book, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	if title == "" {
		return nil, domain.Invalid("book_name is required")
	}
	if author == "" {
		return nil, domain.Invalid("author is required")
	}
	published, err := parsePublishedDate(in.PublishedDate)
	if err != nil {
		return nil, err
	}

	book := &domain.Book{
		Title:         title,
		Author:        author,
		PublishedDate: published,
		OwnerID:       ownerID,
	}

	if in.Image != nil {
		ref, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		book.ImagePath = ref
	}

	if _, err := s.books.Create(ctx, book); err != nil {
		s.discardImage(book.ImagePath)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"book_id": book.ID, "owner_id": ownerID}).Info("book posted")
	return s.books.Get(ctx, book.ID)
}

func (s *bookService) Update(ctx context.Context, bookID, callerID int64, in UpdateBookInput) (*domain.Book, error) {
	current, err := s.books.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != callerID {
		return nil, fmt.Errorf("book %d: %w", bookID, domain.ErrForbidden)
	}

	var patch domain.BookPatch
	if v := trimmed(in.Title); v != nil {
		patch.Title = v
	}
	if v := trimmed(in.Author); v != nil {
		patch.Author = v
	}
	if v := trimmed(in.PublishedDate); v != nil {
		published, err := parsePublishedDate(*v)
		if err != nil {
			return nil, err
		}
		patch.PublishedDate = &published
	}
	if patch.Empty() && in.Image == nil {
		return nil, domain.ErrNoFields
	}

	if in.Image != nil {
		ref, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		patch.ImagePath = &ref
	}

	// The store re-checks ownership under its lock and hands back the row it
	// replaced, which is the only safe source for the image to discard.
	updated, previous, err := s.books.Update(ctx, bookID, callerID, patch)
	if err != nil {
		if patch.ImagePath != nil {
			s.discardImage(*patch.ImagePath)
		}
		return nil, err
	}

	if patch.ImagePath != nil && previous.ImagePath != "" && previous.ImagePath != *patch.ImagePath {
		s.discardImage(previous.ImagePath)
	}

	s.logger.WithFields(logrus.Fields{"book_id": bookID, "owner_id": callerID}).Info("book updated")
	return updated, nil
}

func (s *bookService) Delete(ctx context.Context, bookID, callerID int64) (*domain.Book, []string, error) {
	book, err := s.books.Delete(ctx, bookID, callerID)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if book.ImagePath != "" && s.images != nil {
		if err := s.images.Delete(ctx, book.ImagePath); err != nil && !errors.Is(err, storage.ErrForeignReference) {
			s.logger.WithError(err).WithField("book_id", bookID).Warn("delete book image")
			warnings = append(warnings, fmt.Sprintf("delete image: %v", err))
		}
	}

	s.logger.WithFields(logrus.Fields{"book_id": bookID, "owner_id": callerID}).Info("book deleted")
	return book, warnings, nil
}

func (s *bookService) List(ctx context.Context) ([]domain.Book, error) {
	return s.books.List(ctx)
}

func (s *bookService) Get(ctx context.Context, id int64) (*domain.Book, error) {
	return s.books.Get(ctx, id)
}

func (s *bookService) storeImage(ctx context.Context, img *ImageUpload) (string, error) {
	if s.images == nil {
		return "", errors.New("image storage not configured")
	}
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return "", domain.Invalid("image must be one of jpg, jpeg, png, gif, webp")
	}

	ref, err := s.images.Put(ctx, storage.Object{
		Key:         uuid.NewString() + ext,
		ContentType: img.ContentType,
		Size:        img.Size,
		Body:        img.Body,
	})
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return ref, nil
}

// discardImage removes a blob that is no longer referenced. Failures only
// leave an orphaned file behind, so they are logged and swallowed.
func (s *bookService) discardImage(ref string) {
	if ref == "" || s.images == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.images.Delete(ctx, ref); err != nil && !errors.Is(err, storage.ErrForeignReference) {
		s.logger.WithError(err).WithField("image", ref).Warn("discard image")
	}
}

func parsePublishedDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, domain.Invalid("published_date is required")
	}
	t, err := time.Parse(domain.PublishedDateLayout, v)
	if err != nil {
		return time.Time{}, domain.Invalid("published_date must look like %s", domain.PublishedDateLayout)
	}
	return t, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
