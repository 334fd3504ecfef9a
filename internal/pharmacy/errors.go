package pharmacy

import "errors"

// Pharmacy errors.
var (
	ErrPharmacyExists      = errors.New("pharmacy already set up")
	ErrPharmacyNotFound    = errors.New("pharmacy not found")
	ErrInvalidWorkingDays  = errors.New("workingDays must be a list of day names, a JSON array string or a comma-separated string")
	ErrUnsupportedLogoType = errors.New("logo must be a png, jpeg, webp or gif image")
	ErrLogoTooLarge        = errors.New("logo file is too large")
	ErrInvalidGSTRate      = errors.New("gstPercentage must be a number between 0 and 100")
)
