package domain

import "time"

// Customer is directory data owned by an external collaborator; the ordering
// core only checks existence and the active flag.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
