package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog-service/internal/cache"
	"catalog-service/internal/client"
	"catalog-service/internal/domain"
	"catalog-service/internal/logger"
	"catalog-service/internal/metrics"
	"catalog-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is the stock level below which a product is low on stock.
const DefaultLowStockThreshold = 10

// priceScale is the number of decimal places a price may carry; the
// products table stores NUMERIC(12, 2).
const priceScale = 2

// ProductService defines the interface for product business logic. Every
// returned error is a *domain.ProductServiceError.
type ProductService interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// GetProductWithInventory returns the product with its stock replaced by
	// the live inventory level. When the inventory service does not know the
	// product the stored stock is kept.
	GetProductWithInventory(ctx context.Context, id string) (*domain.Product, error)
	SearchProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	ListActiveProducts(ctx context.Context) ([]*domain.Product, error)
	SearchProductsByName(ctx context.Context, query string) ([]*domain.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID string) ([]*domain.Product, error)
	ListProductsByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*domain.Product, error)
	ListLowStockProducts(ctx context.Context, threshold int) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	NotifyLowStock(ctx context.Context, product *domain.Product) error
}

// ProductCaches groups the two product cache namespaces. Plain reads and
// inventory-enriched reads are cached separately so neither can serve the
// other's shape.
type ProductCaches struct {
	Products         cache.Cache[*domain.Product]
	ProductInventory cache.Cache[*domain.Product]
}

type productService struct {
	repo              repository.ProductRepository
	caches            ProductCaches
	inventory         client.InventoryClient
	notifier          client.NotificationClient
	lowStockThreshold int
	logger            *zap.Logger
	now               func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	repo repository.ProductRepository,
	caches ProductCaches,
	inventory client.InventoryClient,
	notifier client.NotificationClient,
	lowStockThreshold int,
	logger *zap.Logger,
) ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productService{
		repo:              repo,
		caches:            caches,
		inventory:         inventory,
		notifier:          notifier,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
		now:               defaultNow,
	}
}

// defaultNow truncates to the precision Postgres keeps so stored timestamps
// read back equal.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (s *productService) fail(ctx context.Context, se domain.ServiceError) error {
	logServiceError(logger.FromContext(ctx, s.logger), se)
	return domain.NewProductServiceError(se)
}

// CreateProduct persists a new product. Caller-supplied ids and timestamps are ignored.
func (s *productService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if se := validateProduct(product); se != nil {
		return nil, s.fail(ctx, se)
	}

	now := s.now()
	toSave := product.Clone()
	toSave.ID = ""
	toSave.CreatedAt = now
	toSave.UpdatedAt = now

	saved, err := s.repo.Save(ctx, toSave)
	if err != nil {
		return nil, s.fail(ctx, domain.NewDatabaseError("create", err))
	}

	logger.FromContext(ctx, s.logger).Info("Product created", zap.String("product_id", saved.ID))
	return saved, nil
}

// GetProduct retrieves a product by ID, consulting the product cache first
func (s *productService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if cached, ok := s.caches.Products.Get(ctx, id); ok {
		return cached.Clone(), nil
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, s.fail(ctx, &domain.NotFoundError{Entity: "Product", ID: id})
		}
		return nil, s.fail(ctx, domain.NewDatabaseError("findById", err))
	}

	s.caches.Products.Set(ctx, id, product.Clone())
	return product, nil
}

func (s *productService) GetProductWithInventory(ctx context.Context, id string) (*domain.Product, error) {
	if cached, ok := s.caches.ProductInventory.Get(ctx, id); ok {
		return cached.Clone(), nil
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, s.logger)
	log.Debug("Fetching inventory status", zap.String("product_id", id))

	status, ok, err := s.inventory.GetStatus(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, client.ToServiceError(client.InventoryServiceName, "get status for product "+id, err))
	}
	if ok {
		product.StockQuantity = status.QuantityOnHand
	} else {
		log.Debug("No live inventory for product, using stored stock", zap.String("product_id", id))
	}

	s.caches.ProductInventory.Set(ctx, id, product.Clone())
	return product, nil
}

// SearchProducts returns active products matching every supplied filter
func (s *productService) SearchProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	q, err := BuildProductQuery(filter)
	if err != nil {
		return nil, s.fail(ctx, domain.AsServiceError(err))
	}
	logger.FromContext(ctx, s.logger).Debug("Executing product query", zap.Any("query", q))
	return s.find(ctx, "search", q)
}

func (s *productService) ListActiveProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.find(ctx, "findActive", activeOnly())
}

// SearchProductsByName matches a case-insensitive substring of the name
func (s *productService) SearchProductsByName(ctx context.Context, query string) ([]*domain.Product, error) {
	q := activeOnly().Where(repository.ContainsFold(repository.FieldName, query))
	return s.find(ctx, "searchByName", q)
}

func (s *productService) ListProductsByCategory(ctx context.Context, categoryID string) ([]*domain.Product, error) {
	q := activeOnly().Where(repository.Eq(repository.FieldCategoryID, categoryID))
	return s.find(ctx, "findByCategory", q)
}

// ListProductsByPriceRange returns active products priced within [minPrice, maxPrice]
func (s *productService) ListProductsByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*domain.Product, error) {
	if minPrice.GreaterThan(maxPrice) {
		return nil, s.fail(ctx, &domain.ValidationError{
			Field:  "price",
			Reason: "minPrice must not be greater than maxPrice",
		})
	}
	q := activeOnly().Where(
		repository.Gte(repository.FieldPrice, minPrice),
		repository.Lte(repository.FieldPrice, maxPrice),
	)
	return s.find(ctx, "findByPriceRange", q)
}

// ListLowStockProducts returns active products with stock strictly below threshold
func (s *productService) ListLowStockProducts(ctx context.Context, threshold int) ([]*domain.Product, error) {
	if threshold < 0 {
		return nil, s.fail(ctx, &domain.ValidationError{Field: "threshold", Reason: "must not be negative"})
	}
	q := activeOnly().Where(repository.Lt(repository.FieldStockQuantity, threshold))
	return s.find(ctx, "findLowStock", q)
}

func (s *productService) find(ctx context.Context, operation string, q repository.Query) ([]*domain.Product, error) {
	products, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, s.fail(ctx, domain.NewDatabaseError(operation, err))
	}
	return products, nil
}

// UpdateProduct replaces every mutable field of the product. The low-stock
// alert is sent when the update moves stock from at or above the threshold
// to below it; a failed alert does not fail the update.
func (s *productService) UpdateProduct(ctx context.Context, id string, product *domain.Product) (*domain.Product, error) {
	if se := validateProduct(product); se != nil {
		return nil, s.fail(ctx, se)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, s.fail(ctx, &domain.NotFoundError{Entity: "Product", ID: id})
		}
		return nil, s.fail(ctx, domain.NewDatabaseError("findById", err))
	}

	updated := product.Clone()
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()

	saved, err := s.repo.Save(ctx, updated)
	if err != nil {
		return nil, s.fail(ctx, domain.NewDatabaseError("update product", err))
	}
	s.evict(ctx, id)

	if saved.StockQuantity < s.lowStockThreshold && existing.StockQuantity >= s.lowStockThreshold {
		logger.FromContext(ctx, s.logger).Info("Stock dropped below threshold, notifying",
			zap.String("product_id", id),
			zap.String("name", saved.Name),
			zap.Int("threshold", s.lowStockThreshold),
		)
		// The save is committed; the alert must complete even if the caller goes away.
		if err := s.NotifyLowStock(context.WithoutCancel(ctx), saved); err != nil {
			logger.FromContext(ctx, s.logger).Error("Failed to send low stock notification",
				zap.String("product_id", id),
				zap.Error(err),
			)
		}
	}

	return saved, nil
}

// DeleteProduct hard-deletes a product after checking it exists
func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return s.fail(ctx, domain.NewDatabaseError("existsById", err))
	}
	if !exists {
		return s.fail(ctx, &domain.NotFoundError{Entity: "Product", ID: id})
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return s.fail(ctx, &domain.NotFoundError{Entity: "Product", ID: id})
		}
		return s.fail(ctx, domain.NewDatabaseError("delete", err))
	}
	s.evict(ctx, id)

	logger.FromContext(ctx, s.logger).Info("Product deleted", zap.String("product_id", id))
	return nil
}

// NotifyLowStock posts a low-stock alert for product to the notification service
func (s *productService) NotifyLowStock(ctx context.Context, product *domain.Product) error {
	notification := domain.LowStockNotification{
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.StockQuantity,
	}
	if notification.ProductID == "" {
		notification.ProductID = "UNKNOWN"
	}

	if err := s.notifier.NotifyLowStock(ctx, notification); err != nil {
		metrics.LowStockNotifications.WithLabelValues("failed").Inc()
		return s.fail(ctx, client.ToServiceError(
			client.NotificationServiceName,
			"send low stock notification for product "+notification.ProductID,
			err,
		))
	}

	metrics.LowStockNotifications.WithLabelValues("sent").Inc()
	return nil
}

// evict drops both cached views of id. It runs after the store write has
// committed, so it must not be cut short by the caller's cancellation.
func (s *productService) evict(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)
	s.caches.Products.Delete(ctx, id)
	s.caches.ProductInventory.Delete(ctx, id)
}

func activeOnly() repository.Query {
	return repository.Query{}.Where(repository.Eq(repository.FieldActive, true))
}

func validateProduct(p *domain.Product) domain.ServiceError {
	switch {
	case p == nil:
		return &domain.ValidationError{Field: "product", Reason: "must not be empty"}
	case strings.TrimSpace(p.Name) == "":
		return &domain.ValidationError{Field: "name", Reason: "must not be blank"}
	case !p.Price.IsPositive():
		return &domain.ValidationError{Field: "price", Reason: "must be greater than 0"}
	case !p.Price.Equal(p.Price.Round(priceScale)):
		return &domain.ValidationError{Field: "price", Reason: "must have at most 2 decimal places"}
	case p.StockQuantity < 0:
		return &domain.ValidationError{Field: "stockQuantity", Reason: "must not be negative"}
	}
	return nil
}

// logServiceError logs se at a level matching its kind.
func logServiceError(log *zap.Logger, se domain.ServiceError) {
	switch se.Kind() {
	case domain.KindNotFound:
		log.Debug(se.Error())
	case domain.KindValidation, domain.KindBusinessRule:
		log.Warn(se.Error())
	case domain.KindExternalService:
		log.Warn(se.Error())
	case domain.KindDatabase, domain.KindUnknown:
		log.Error(se.Error(), zap.String("kind", se.Kind().String()))
	}
}
