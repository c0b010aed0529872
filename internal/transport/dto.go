package transport

import (
	"catalog-service/internal/domain"

	"github.com/shopspring/decimal"
)

// ProductRequest is the create/update payload for a product. Price sign is
// checked by the product service.
type ProductRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description" validate:"max=2000"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
	CategoryID    string          `json:"categoryId"`
	ImageURLs     []string        `json:"imageUrls" validate:"omitempty,dive,required"`
	Active        *bool           `json:"active"`
}

func (req ProductRequest) toDomain() *domain.Product {
	imageURLs := req.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}
	return &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		ImageURLs:     imageURLs,
		Active:        boolOrTrue(req.Active),
	}
}

// CategoryRequest is the create/update payload for a category
type CategoryRequest struct {
	Name             string `json:"name" validate:"required,max=100"`
	Description      string `json:"description"`
	ParentCategoryID string `json:"parentCategoryId"`
	Active           *bool  `json:"active"`
}

func (req CategoryRequest) toDomain() *domain.Category {
	return &domain.Category{
		Name:             req.Name,
		Description:      req.Description,
		ParentCategoryID: req.ParentCategoryID,
		Active:           boolOrTrue(req.Active),
	}
}

func boolOrTrue(b *bool) bool {
	return b == nil || *b
}
