package domain

import "time"

// Pharmacy is the business profile of a tenant. One per admin identity.
type Pharmacy struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	PharmacyName  string    `json:"pharmacyName"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	Pincode       string    `json:"pincode,omitempty"`
	OpenTime      string    `json:"openTime,omitempty"`
	CloseTime     string    `json:"closeTime,omitempty"`
	WorkingDays   []string  `json:"workingDays"`
	GSTPercentage string    `json:"gstPercentage"`
	InvoicePrefix string    `json:"invoicePrefix"`
	Logo          *string   `json:"logo,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
