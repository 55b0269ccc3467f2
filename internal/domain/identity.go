package domain

import "time"

// Identity is the authenticated subject as stored in user_info.
// The auth core receives it as a read-only snapshot.
type Identity struct {
	ID           int64
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Address      string
	Role         string
	Position     string
	ExternalID   string
	Status       string
	RegisteredAt time.Time
}
