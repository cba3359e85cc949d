package models

import (
	"strings"
	"time"
)

// users table
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public is the user shape returned to clients; the password hash never leaves the server.
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

type BookStatus string

const (
	StatusPlanned  BookStatus = "planned"
	StatusReading  BookStatus = "reading"
	StatusFinished BookStatus = "finished"
)

// ParseBookStatus lower-cases and trims s before matching it against the known statuses.
func ParseBookStatus(s string) (BookStatus, bool) {
	switch BookStatus(strings.TrimSpace(strings.ToLower(s))) {
	case StatusPlanned:
		return StatusPlanned, true
	case StatusReading:
		return StatusReading, true
	case StatusFinished:
		return StatusFinished, true
	default:
		return "", false
	}
}

// books table
type Book struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Pages       *int       `json:"pages"`
	CurrentPage int        `json:"current_page"`
	Status      BookStatus `json:"status"`
	ISBN        *string    `json:"isbn"`
	CoverURL    *string    `json:"cover_url"`
	StartDate   *string    `json:"start_date"`
	EndDate     *string    `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
