package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) rentBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	rental, err := h.rentals.Rent(c.Request.Context(), id, identityFrom(c).ID)
	if err != nil {
		h.fail(c, err, "rent book")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book rented successfully",
		"rental":  rentalToResponse(rental),
	})
}

func (h *Handler) returnBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	rental, err := h.rentals.Return(c.Request.Context(), id, identityFrom(c).ID)
	if err != nil {
		h.fail(c, err, "return book")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book returned successfully",
		"rental":  rentalToResponse(rental),
	})
}

func (h *Handler) bookRentals(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	rentals, err := h.rentals.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "list rentals")
		return
	}
	c.JSON(http.StatusOK, rentalsToResponse(rentals))
}

func (h *Handler) myRentals(c *gin.Context) {
	rentals, err := h.rentals.ListForRenter(c.Request.Context(), identityFrom(c).ID)
	if err != nil {
		h.fail(c, err, "list rentals")
		return
	}
	c.JSON(http.StatusOK, rentalsToResponse(rentals))
}
