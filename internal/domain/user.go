package domain

import "time"

// User is an account allowed through basic auth when AUTH_SOURCE=postgres.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
