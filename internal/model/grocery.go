package model

import "time"

// Priority levels for a grocery list.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is one of the known priority levels.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type GroceryList struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	HouseholdID   *string   `json:"household_id"`
	HouseholdName string    `json:"household_name,omitempty"`
	Priority      string    `json:"priority"`
	DueDate       *string   `json:"due_date"`
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"created_at"`
}

type Item struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Brand     string    `json:"brand,omitempty"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
