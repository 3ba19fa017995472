package entity

import (
	"time"
)

// User is a library account. PasswordHash holds "digest:salt" as produced by
// helpers.HashPassword and is never rendered to clients.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
