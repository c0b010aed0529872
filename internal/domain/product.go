package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    string          `json:"categoryId,omitempty"`
	ImageURLs     []string        `json:"imageUrls"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Active        bool            `json:"active"`
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.ImageURLs != nil {
		c.ImageURLs = append([]string(nil), p.ImageURLs...)
	}
	return &c
}

// Category represents a product category
type Category struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ParentCategoryID string `json:"parentCategoryId,omitempty"`
	Active           bool   `json:"active"`
}

// InventoryStatus is the live stock level reported by the inventory service.
type InventoryStatus struct {
	ProductID      string     `json:"productId"`
	QuantityOnHand int        `json:"quantityOnHand"`
	LastUpdatedAt  *time.Time `json:"lastUpdatedAt,omitempty"`
}

// LowStockNotification is posted to the notification service when a
// product's stock drops below the low-stock threshold.
type LowStockNotification struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	CurrentStock int    `json:"currentStock"`
}
