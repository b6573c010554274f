package models

import (
	"time"

	"github.com/gocql/gocql"
)

type User struct {
	ID         gocql.UUID `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Picture    string     `json:"picture,omitempty"`
	Provider   string     `json:"provider"`
	ProviderID string     `json:"-"`
	Role       string     `json:"role"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
