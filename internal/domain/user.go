package domain

import "time"

// User represents a registered member of the marketplace.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
