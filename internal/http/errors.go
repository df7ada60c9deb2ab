package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"book-rental/internal/domain"
)

// fail maps a domain error to a status code and aborts the request. Errors
// outside the domain taxonomy are logged and answered with a generic message.
func (h *Handler) fail(c *gin.Context, err error, action string) {
	status, msg := classify(err, action)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Errorf("%s failed", action)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func classify(err error, action string) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "Request body too large"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	case errors.Is(err, domain.ErrNoFields):
		return http.StatusBadRequest, "No fields to update"
	case errors.Is(err, domain.ErrInvalidLogin):
		return http.StatusBadRequest, "Invalid email or password"
	case domain.IsConflict(err):
		return http.StatusBadRequest, conflictMessage(err)
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrInvalidCredential):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Unauthorized to " + action
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Book not found"
	default:
		return http.StatusInternalServerError, "Error trying to " + action
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "Email already exists"
	case errors.Is(err, domain.ErrSelfRental):
		return "You cannot rent your own book"
	case errors.Is(err, domain.ErrAlreadyRented):
		return "Book is already rented"
	case errors.Is(err, domain.ErrNoActiveRental):
		return "No active rental found for this book"
	default:
		return err.Error()
	}
}
