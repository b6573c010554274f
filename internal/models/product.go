package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Product : le prix est stocké en centimes (entier), jamais en flottant.
type Product struct {
	ID          gocql.UUID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Stock       int        `json:"stock"`
	CategoryID  gocql.UUID `json:"category_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
