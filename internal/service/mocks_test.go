package service

import (
	"context"
	"sync"
	"testing"

	"catalog-service/internal/cache"
	"catalog-service/internal/domain"
	"catalog-service/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// countingProductRepository wraps the in-memory repository, counting calls
// and optionally failing them.
type countingProductRepository struct {
	repository.ProductRepository

	mu       sync.Mutex
	calls    map[string]int
	failWith error
}

func newCountingProductRepository() *countingProductRepository {
	return &countingProductRepository{
		ProductRepository: repository.NewInMemoryProductRepository(),
		calls:             make(map[string]int),
	}
}

func (r *countingProductRepository) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	return r.failWith
}

func (r *countingProductRepository) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *countingProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.record("FindByID"); err != nil {
		return nil, err
	}
	return r.ProductRepository.FindByID(ctx, id)
}

func (r *countingProductRepository) Find(ctx context.Context, q repository.Query) ([]*domain.Product, error) {
	if err := r.record("Find"); err != nil {
		return nil, err
	}
	return r.ProductRepository.Find(ctx, q)
}

func (r *countingProductRepository) Save(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := r.record("Save"); err != nil {
		return nil, err
	}
	return r.ProductRepository.Save(ctx, p)
}

func (r *countingProductRepository) DeleteByID(ctx context.Context, id string) error {
	if err := r.record("DeleteByID"); err != nil {
		return err
	}
	return r.ProductRepository.DeleteByID(ctx, id)
}

func (r *countingProductRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	if err := r.record("ExistsByID"); err != nil {
		return false, err
	}
	return r.ProductRepository.ExistsByID(ctx, id)
}

func (r *countingProductRepository) Count(ctx context.Context, q repository.Query) (int64, error) {
	if err := r.record("Count"); err != nil {
		return 0, err
	}
	return r.ProductRepository.Count(ctx, q)
}

type mockInventoryClient struct {
	mu     sync.Mutex
	status map[string]*domain.InventoryStatus
	err    error
	calls  int
}

func newMockInventoryClient() *mockInventoryClient {
	return &mockInventoryClient{status: make(map[string]*domain.InventoryStatus)}
}

func (m *mockInventoryClient) GetStatus(ctx context.Context, productID string) (*domain.InventoryStatus, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, false, m.err
	}
	s, ok := m.status[productID]
	return s, ok, nil
}

type mockNotificationClient struct {
	mu            sync.Mutex
	sent          []domain.LowStockNotification
	err           error
	ctxWasAlive   bool
	notifiedCalls int
}

func (m *mockNotificationClient) NotifyLowStock(ctx context.Context, n domain.LowStockNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiedCalls++
	m.ctxWasAlive = ctx.Err() == nil
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotificationClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifiedCalls
}

type productFixture struct {
	repo      *countingProductRepository
	inventory *mockInventoryClient
	notifier  *mockNotificationClient
	service   ProductService
}

func newProductFixture() *productFixture {
	return newProductFixtureWithCaches(ProductCaches{
		Products:         cache.NewLRU[*domain.Product](cache.Products, cache.DefaultOptions()),
		ProductInventory: cache.NewLRU[*domain.Product](cache.ProductInventory, cache.DefaultOptions()),
	})
}

func newProductFixtureWithCaches(caches ProductCaches) *productFixture {
	f := &productFixture{
		repo:      newCountingProductRepository(),
		inventory: newMockInventoryClient(),
		notifier:  &mockNotificationClient{},
	}
	f.service = NewProductService(
		f.repo,
		caches,
		f.inventory,
		f.notifier,
		DefaultLowStockThreshold,
		nil,
	)
	return f
}

func newProduct(name, price string, stock int) *domain.Product {
	return &domain.Product{
		Name:          name,
		Description:   "description of " + name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		ImageURLs:     []string{},
		Active:        true,
	}
}

// countingCategoryRepository wraps the in-memory repository and counts
// FindByID calls.
type countingCategoryRepository struct {
	repository.CategoryRepository

	mu        sync.Mutex
	findByIDs int
}

func (r *countingCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	r.mu.Lock()
	r.findByIDs++
	r.mu.Unlock()
	return r.CategoryRepository.FindByID(ctx, id)
}

func (r *countingCategoryRepository) findByIDCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByIDs
}

type categoryFixture struct {
	categories *countingCategoryRepository
	products   *countingProductRepository
	service    CategoryService
}

func newCategoryFixture() *categoryFixture {
	return newCategoryFixtureWithCache(cache.NewLRU[*domain.Category](cache.Categories, cache.DefaultOptions()))
}

func newCategoryFixtureWithCache(c cache.Cache[*domain.Category]) *categoryFixture {
	f := &categoryFixture{
		categories: &countingCategoryRepository{CategoryRepository: repository.NewInMemoryCategoryRepository()},
		products:   newCountingProductRepository(),
	}
	f.service = NewCategoryService(f.categories, f.products, c, nil)
	return f
}

// newRedisClient returns a client for a throwaway miniredis server.
func newRedisClient(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

// cancelledContext returns a context that is already done.
func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
