package domain

import "time"

// Customer is a pharmacy customer record owned by a tenant.
type Customer struct {
	ID        string    `json:"id"`
	Code      string    `json:"customerId"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Email     *string   `json:"email,omitempty"`
	Avatar    string    `json:"avatar"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
