package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"book-rental/internal/domain"
	"book-rental/internal/service"
)

func (h *Handler) postBook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	image, closeImage, err := formImage(c)
	if err != nil {
		h.fail(c, err, "post book")
		return
	}
	defer closeImage()

	in := service.CreateBookInput{
		Title:         c.PostForm("book_name"),
		Author:        c.PostForm("author"),
		PublishedDate: c.PostForm("published_date"),
		Image:         image,
	}
	book, err := h.books.Create(c.Request.Context(), identityFrom(c).ID, in)
	if err != nil {
		h.fail(c, err, "post book")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Book posted successfully",
		"book":    bookToResponse(book),
	})
}

func (h *Handler) updateBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	image, closeImage, err := formImage(c)
	if err != nil {
		h.fail(c, err, "update book")
		return
	}
	defer closeImage()

	in := service.UpdateBookInput{
		Title:         optionalForm(c, "book_name"),
		Author:        optionalForm(c, "author"),
		PublishedDate: optionalForm(c, "published_date"),
		Image:         image,
	}
	book, err := h.books.Update(c.Request.Context(), id, identityFrom(c).ID, in)
	if err != nil {
		h.fail(c, err, "update book")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book updated successfully",
		"book":    bookToResponse(book),
	})
}

func (h *Handler) deleteBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	book, warnings, err := h.books.Delete(c.Request.Context(), id, identityFrom(c).ID)
	if err != nil {
		h.fail(c, err, "delete book")
		return
	}

	resp := gin.H{
		"message": "Book deleted successfully",
		"book":    bookToResponse(book),
	}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.books.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, booksToResponse(books))
}

func (h *Handler) getBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	book, err := h.books.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, bookToResponse(book))
}

// formImage opens the optional "image" part of a multipart form.
func formImage(c *gin.Context) (*service.ImageUpload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, err
		}
		return nil, noop, domain.Invalid("invalid multipart form")
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*service.ImageUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

// optionalForm returns nil for a form field that was not sent at all.
func optionalForm(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}
