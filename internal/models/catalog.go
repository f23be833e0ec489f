package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is a symposium ticket catalog row, priced per participant category.
// Read-only from the application's perspective.
type Ticket struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     int64     `json:"price"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Workshop is a workshop catalog row.
type Workshop struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	Capacity  int       `json:"capacity"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
