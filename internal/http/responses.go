package http

import (
	"time"

	"book-rental/internal/domain"
)

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type bookResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"book_name"`
	Author        string  `json:"author"`
	PublishedDate string  `json:"published_date"`
	PostedDate    string  `json:"posted_date"`
	ImagePath     *string `json:"image_path"`
	Rented        bool    `json:"rented"`
	OwnerID       int64   `json:"user_id"`
	OwnerName     string  `json:"user_name,omitempty"`
}

type rentalResponse struct {
	ID         int64   `json:"id"`
	BookID     int64   `json:"book_id"`
	BookTitle  string  `json:"book_name,omitempty"`
	RenterID   int64   `json:"user_id"`
	RenterName string  `json:"user_name,omitempty"`
	RentalDate string  `json:"rental_date"`
	ReturnDate *string `json:"return_date"`
}

func userToResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func bookToResponse(b *domain.Book) bookResponse {
	resp := bookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		PublishedDate: b.PublishedDate.Format(domain.PublishedDateLayout),
		PostedDate:    formatTime(b.PostedAt),
		Rented:        b.Rented,
		OwnerID:       b.OwnerID,
		OwnerName:     b.OwnerName,
	}
	if b.ImagePath != "" {
		path := b.ImagePath
		resp.ImagePath = &path
	}
	return resp
}

func booksToResponse(books []domain.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for i := range books {
		out = append(out, bookToResponse(&books[i]))
	}
	return out
}

func rentalToResponse(r *domain.Rental) rentalResponse {
	resp := rentalResponse{
		ID:         r.ID,
		BookID:     r.BookID,
		BookTitle:  r.BookTitle,
		RenterID:   r.RenterID,
		RenterName: r.RenterName,
		RentalDate: formatTime(r.RentedAt),
	}
	if r.ReturnedAt != nil {
		returned := formatTime(*r.ReturnedAt)
		resp.ReturnDate = &returned
	}
	return resp
}

func rentalsToResponse(rentals []domain.Rental) []rentalResponse {
	out := make([]rentalResponse, 0, len(rentals))
	for i := range rentals {
		out = append(out, rentalToResponse(&rentals[i]))
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
