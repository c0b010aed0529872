package service

import (
	"strings"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductFilter holds the optional multi-criteria search parameters. Zero
// values mean "not supplied".
type ProductFilter struct {
	Name       string
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	Direction  string
}

// sortFields maps the public sort names onto product fields.
var sortFields = map[string]repository.Field{
	"name":           repository.FieldName,
	"price":          repository.FieldPrice,
	"stockQuantity":  repository.FieldStockQuantity,
	"stock_quantity": repository.FieldStockQuantity,
	"categoryId":     repository.FieldCategoryID,
	"category_id":    repository.FieldCategoryID,
	"createdAt":      repository.FieldCreatedAt,
	"created_at":     repository.FieldCreatedAt,
	"updatedAt":      repository.FieldUpdatedAt,
	"updated_at":     repository.FieldUpdatedAt,
}

// ParseSortOrder returns DESC for a case-insensitive "desc" and ASC for
// anything else, including values it cannot parse.
func ParseSortOrder(direction string) repository.SortOrder {
	if strings.EqualFold(strings.TrimSpace(direction), "desc") {
		return repository.SortOrderDesc
	}
	return repository.SortOrderAsc
}

// BuildProductQuery translates f into a store query. Every supplied
// predicate is ANDed and active = true is always appended.
func BuildProductQuery(f ProductFilter) (repository.Query, error) {
	var q repository.Query

	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where(repository.ContainsFold(repository.FieldName, name))
	}
	if categoryID := strings.TrimSpace(f.CategoryID); categoryID != "" {
		q = q.Where(repository.Eq(repository.FieldCategoryID, categoryID))
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return repository.Query{}, &domain.ValidationError{
			Field:  "price",
			Reason: "minPrice must not be greater than maxPrice",
		}
	}
	if f.MinPrice != nil {
		q = q.Where(repository.Gte(repository.FieldPrice, *f.MinPrice))
	}
	if f.MaxPrice != nil {
		q = q.Where(repository.Lte(repository.FieldPrice, *f.MaxPrice))
	}

	q = q.Where(repository.Eq(repository.FieldActive, true))

	if sortBy := strings.TrimSpace(f.SortBy); sortBy != "" {
		field, ok := sortFields[sortBy]
		if !ok {
			return repository.Query{}, &domain.ValidationError{
				Field:  "sortBy",
				Reason: "unsupported sort field '" + sortBy + "'",
			}
		}
		q = q.OrderBy(field, ParseSortOrder(f.Direction))
	}

	return q, nil
}
