package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"catalog-service/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindAll(ctx context.Context) ([]*domain.Product, error)
	Find(ctx context.Context, q Query) ([]*domain.Product, error)
	// Save inserts or replaces the product and returns the persisted copy.
	// An empty ID is assigned on first save.
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteByID(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context, q Query) (int64, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productSelect = `
		SELECT id, name, description, price, stock_quantity, category_id, image_urls, created_at, updated_at, active
		FROM products
	`

// Save upserts a product using parameterized queries
func (r *productRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved := product.Clone()
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.ImageURLs == nil {
		saved.ImageURLs = []string{}
	}

	imageURLs, err := json.Marshal(saved.ImageURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image urls: %w", err)
	}

	query := `
		INSERT INTO products (id, name, description, price, stock_quantity, category_id, image_urls, created_at, updated_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
		    stock_quantity = EXCLUDED.stock_quantity, category_id = EXCLUDED.category_id,
		    image_urls = EXCLUDED.image_urls, updated_at = EXCLUDED.updated_at, active = EXCLUDED.active
		RETURNING price, created_at
	`

	err = r.db.QueryRowContext(
		ctx,
		query,
		saved.ID,
		saved.Name,
		nullString(saved.Description),
		saved.Price,
		saved.StockQuantity,
		nullString(saved.CategoryID),
		string(imageURLs),
		saved.CreatedAt,
		saved.UpdatedAt,
		saved.Active,
	).Scan(&saved.Price, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	return saved, nil
}

// DeleteByID removes a product from the database using parameterized queries
func (r *productRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, productSelect+`WHERE id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindAll retrieves every product in store order
func (r *productRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.Find(ctx, Query{})
}

// Find retrieves products matching all criteria of q
func (r *productRepository) Find(ctx context.Context, q Query) ([]*domain.Product, error) {
	where, orderBy, args, err := q.toSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build product query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, productSelect+where+" "+orderBy, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// ExistsByID reports whether a product with the given ID exists
func (r *productRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// Count returns the number of products matching q
func (r *productRepository) Count(ctx context.Context, q Query) (int64, error) {
	q.Sort = nil
	where, _, args, err := q.toSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products "+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product     domain.Product
		description sql.NullString
		categoryID  sql.NullString
		imageURLs   []byte
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.Price,
		&product.StockQuantity,
		&categoryID,
		&imageURLs,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Active,
	)
	if err != nil {
		return nil, err
	}

	product.Description = description.String
	product.CategoryID = categoryID.String
	product.ImageURLs = []string{}
	if len(imageURLs) > 0 {
		if err := json.Unmarshal(imageURLs, &product.ImageURLs); err != nil {
			return nil, fmt.Errorf("failed to decode image urls: %w", err)
		}
	}

	return &product, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
