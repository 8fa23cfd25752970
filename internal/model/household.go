package model

import "time"

type Household struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCreator reports whether userID created the household. The creator_id
// column is always populated at creation, so there is no positional
// first-member fallback.
func (h *Household) IsCreator(userID string) bool {
	return h.CreatorID == userID
}

func (h *Household) IsMember(userID string) bool {
	for _, id := range h.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
