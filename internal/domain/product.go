package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus is derived from expiry date and quantity on every write.
type StockStatus string

// Stock statuses.
const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusExpired    StockStatus = "expired"
)

// Product is an inventory line owned by a tenant.
type Product struct {
	ID            string          `json:"id"`
	Code          string          `json:"productId"`
	OwnerID       string          `json:"ownerId"`
	Name          string          `json:"productName"`
	Category      string          `json:"category"`
	BatchNumber   string          `json:"batchNumber"`
	BoxNumber     string          `json:"boxNumber,omitempty"`
	ExpiryDate    time.Time       `json:"expiryDate"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	StockQuantity int             `json:"stockQuantity"`
	Supplier      string          `json:"supplier,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	Status        StockStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
