package staff

import "errors"

// Staff errors.
var (
	ErrStaffNotFound    = errors.New("staff not found")
	ErrEmailExists      = errors.New("email already registered")
	ErrInvalidStaffRole = errors.New("staffRole must be one of Pharmacist, Cashier, Inventory Staff")
	ErrInvalidStatus    = errors.New("status must be ACTIVE or INACTIVE")
	ErrPasswordTooLong  = errors.New("password is too long")
)
