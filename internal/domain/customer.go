package domain

import (
	"strings"
	"time"
)

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail is the key customers are deduplicated on.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
