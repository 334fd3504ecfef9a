package inventory

import "errors"

// Inventory errors.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidCategory = errors.New("unknown product category")
	ErrInvalidStock    = errors.New("stock must be one of in-stock, out-of-stock, low-stock, expired")
	ErrInvalidPrice    = errors.New("prices must not be negative")
	ErrInvalidQuantity = errors.New("stockQuantity must not be negative")
	ErrInvalidExpiry   = errors.New("expiryDate must be a date in YYYY-MM-DD format")
	ErrNothingToUpdate = errors.New("sellingPrice or stockQuantity is required")
)
