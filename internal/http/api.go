package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"book-rental/internal/auth"
	"book-rental/internal/service"
)

// Options tunes the HTTP surface.
type Options struct {
	// UploadDir is served under /uploads when set (local image storage).
	UploadDir string
	// MaxUploadBytes caps multipart request bodies.
	MaxUploadBytes int64
	// AuthRatePerMinute limits /register and /login per client IP; zero
	// disables the limit.
	AuthRatePerMinute int
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	books   service.BookService
	rentals service.RentalService
	tokens  *auth.Issuer
	logger  *logrus.Logger
	opts    Options
}

func NewHandler(users service.UserService, books service.BookService, rentals service.RentalService, tokens *auth.Issuer, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		users:   users,
		books:   books,
		rentals: rentals,
		tokens:  tokens,
		logger:  logger,
		opts:    opts,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	limited := router.Group("/")
	if h.opts.AuthRatePerMinute > 0 {
		limited.Use(newIPRateLimiter(h.opts.AuthRatePerMinute, time.Minute).middleware())
	}
	limited.POST("/register", h.register)
	limited.POST("/login", h.login)

	router.GET("/books", h.listBooks)
	router.GET("/books/:id", h.getBook)
	router.GET("/books/:id/rentals", h.bookRentals)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	if h.opts.UploadDir != "" {
		router.Static("/uploads", h.opts.UploadDir)
	}

	authed := router.Group("/", h.requireAuth())
	{
		authed.POST("/post-book", h.postBook)
		authed.PATCH("/update-book/:id", h.updateBook)
		authed.DELETE("/delete-book/:id", h.deleteBook)
		authed.POST("/rent-book/:id", h.rentBook)
		authed.POST("/return-book/:id", h.returnBook)
		authed.GET("/my-rentals", h.myRentals)
		authed.GET("/me", h.me)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func parseBookID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return 0, false
	}
	return id, true
}
