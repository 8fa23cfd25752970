package model

import "time"

// User is a profile record queryable by email. The password hash lives on
// the same row since larder hosts its own accounts.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	HouseholdID  *string   `json:"household_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
