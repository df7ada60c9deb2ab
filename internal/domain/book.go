package domain

import "time"

// PublishedDateLayout is the wire and storage layout of Book.PublishedDate.
const PublishedDateLayout = "2006-01-02"

// Book is a listing posted by its owner. Rented mirrors the existence of an
// open Rental and is only ever changed by the rental transitions.
type Book struct {
	ID            int64
	Title         string
	Author        string
	PublishedDate time.Time
	PostedAt      time.Time
	ImagePath     string
	Rented        bool
	OwnerID       int64
	OwnerName     string
}

// BookPatch carries the fields of a partial update. Nil fields stay untouched.
type BookPatch struct {
	Title         *string
	Author        *string
	PublishedDate *time.Time
	ImagePath     *string
}

// Empty reports whether the patch changes nothing.
func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.PublishedDate == nil && p.ImagePath == nil
}
