package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"book-rental/internal/auth"
	"book-rental/internal/domain"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.Invalid("invalid request body"), "register")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "register")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userToResponse(user),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.Invalid("invalid request body"), "log in")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "log in")
		return
	}

	token, expiresAt, err := h.tokens.Issue(auth.Identity{ID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		h.fail(c, err, "log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": formatTime(expiresAt),
		"user":       userToResponse(user),
	})
}

// me returns the profile behind the caller's token. A token that outlives
// its user is treated like any other stale credential.
func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), identityFrom(c).ID)
	if errors.Is(err, domain.ErrNotFound) {
		err = domain.ErrInvalidCredential
	}
	if err != nil {
		h.fail(c, err, "load profile")
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}
