package customers

import "errors"

// Customer errors.
var (
	ErrCustomerNotFound = errors.New("customer not found")
)
