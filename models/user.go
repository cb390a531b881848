package models

import (
	"time"
)

// User represents a platform user holding a real-money balance.
// Balances are stored in the smallest currency unit and only ever
// mutated through atomic increments.
type User struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
