package model

import "time"

// GroceryStore is a physical store with an optional map coordinate.
// Stores are not scoped to a household or user.
type GroceryStore struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}
