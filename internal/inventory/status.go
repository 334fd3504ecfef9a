package inventory

import (
	"slices"
	"time"

	"github.com/rxdesk/pharmacy-api/internal/domain"
)

// DefaultLowStockThreshold is the quantity at or below which a product is low on stock.
const DefaultLowStockThreshold = 10

// Categories are the accepted product category keys.
var Categories = []string{
	"antibiotic",
	"painkiller",
	"antipyretic",
	"antacid",
	"antihistamine",
	"vitamin",
	"supplement",
	"cough-cold",
	"respiratory",
	"diabetic-care",
	"cardiac",
	"gastro",
	"dermatology",
	"eye-ear",
	"women-care",
	"men-care",
	"baby-care",
	"first-aid",
	"antiseptic",
	"surgical",
}

// ValidCategory reports whether key is a known category.
func ValidCategory(key string) bool {
	return slices.Contains(Categories, key)
}

// StockFilter selects products by availability.
type StockFilter string

// Stock filters. StockAll disables the filter.
const (
	StockAll        StockFilter = ""
	StockInStock    StockFilter = "in-stock"
	StockOutOfStock StockFilter = "out-of-stock"
	StockLowStock   StockFilter = "low-stock"
	StockExpired    StockFilter = "expired"
)

// ParseStockFilter accepts the query form of a stock filter. Empty and "all" mean no filter.
func ParseStockFilter(s string) (StockFilter, bool) {
	switch f := StockFilter(s); f {
	case StockAll, StockInStock, StockOutOfStock, StockLowStock, StockExpired:
		return f, true
	case "all":
		return StockAll, true
	}
	return "", false
}

// DeriveStatus computes the stock status of a product on a given day.
// Expiry wins over quantity; a product expiring today is still sellable.
func DeriveStatus(expiry time.Time, quantity int, today time.Time, lowStockThreshold int) domain.StockStatus {
	switch {
	case expiry.Before(today):
		return domain.StockStatusExpired
	case quantity <= 0:
		return domain.StockStatusOutOfStock
	case quantity <= lowStockThreshold:
		return domain.StockStatusLowStock
	default:
		return domain.StockStatusInStock
	}
}

// truncateToDay returns midnight UTC of t's calendar day in UTC.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
