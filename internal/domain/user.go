package domain

import "time"

// User represents a registered user of the inventory. Users are immutable
// once created.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
