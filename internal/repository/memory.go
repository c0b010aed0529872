package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// inMemoryProductRepository keeps products in insertion order. It evaluates
// the same Query as the Postgres repository and is used for local runs and
// service tests.
type inMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	order    []string
}

// NewInMemoryProductRepository creates an empty in-process ProductRepository
func NewInMemoryProductRepository() ProductRepository {
	return &inMemoryProductRepository{products: make(map[string]*domain.Product)}
}

func (r *inMemoryProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p.Clone(), nil
}

func (r *inMemoryProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.Find(ctx, Query{})
}

func (r *inMemoryProductRepository) Find(ctx context.Context, q Query) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := []*domain.Product{}
	for _, id := range r.order {
		p := r.products[id]
		ok, err := matches(p, q.Criteria)
		if err != nil {
			return nil, err
		}
		if ok {
			products = append(products, p.Clone())
		}
	}

	if q.Sort != nil {
		if err := sortProducts(products, *q.Sort); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *inMemoryProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := product.Clone()
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.ImageURLs == nil {
		saved.ImageURLs = []string{}
	}

	if existing, ok := r.products[saved.ID]; ok {
		saved.CreatedAt = existing.CreatedAt
	} else {
		r.order = append(r.order, saved.ID)
	}
	r.products[saved.ID] = saved

	return saved.Clone(), nil
}

func (r *inMemoryProductRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *inMemoryProductRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.products[id]
	return ok, nil
}

func (r *inMemoryProductRepository) Count(ctx context.Context, q Query) (int64, error) {
	q.Sort = nil
	products, err := r.Find(ctx, q)
	if err != nil {
		return 0, err
	}
	return int64(len(products)), nil
}

func matches(p *domain.Product, criteria []Criterion) (bool, error) {
	for _, c := range criteria {
		v, err := fieldValue(p, c.Field)
		if err != nil {
			return false, err
		}

		if c.Op == OpContainsFold {
			s, ok := v.(string)
			needle, nok := c.Value.(string)
			if !ok || !nok {
				return false, fmt.Errorf("substring match on %q needs a string, got %T", c.Field, c.Value)
			}
			if !strings.Contains(strings.ToLower(s), strings.ToLower(needle)) {
				return false, nil
			}
			continue
		}

		cmp, err := compare(v, c.Value)
		if err != nil {
			return false, fmt.Errorf("field %q: %w", c.Field, err)
		}

		var ok bool
		switch c.Op {
		case OpEq:
			ok = cmp == 0
		case OpGte:
			ok = cmp >= 0
		case OpLte:
			ok = cmp <= 0
		case OpLt:
			ok = cmp < 0
		default:
			return false, fmt.Errorf("unsupported operator %d", c.Op)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func fieldValue(p *domain.Product, f Field) (any, error) {
	switch f {
	case FieldName:
		return p.Name, nil
	case FieldCategoryID:
		return p.CategoryID, nil
	case FieldPrice:
		return p.Price, nil
	case FieldStockQuantity:
		return p.StockQuantity, nil
	case FieldActive:
		return p.Active, nil
	case FieldCreatedAt:
		return p.CreatedAt, nil
	case FieldUpdatedAt:
		return p.UpdatedAt, nil
	default:
		return nil, fmt.Errorf("unsupported query field %q", f)
	}
}

// compare orders a against b, which must hold the same kind of value.
func compare(a, b any) (int, error) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare string with %T", b)
		}
		return strings.Compare(av, bv), nil
	case int:
		bv, ok := b.(int)
		if !ok {
			return 0, fmt.Errorf("cannot compare int with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("cannot compare bool with %T", b)
		}
		if av == bv {
			return 0, nil
		}
		if !av {
			return -1, nil
		}
		return 1, nil
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		if !ok {
			return 0, fmt.Errorf("cannot compare decimal with %T", b)
		}
		return av.Cmp(bv), nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("cannot compare time with %T", b)
		}
		return av.Compare(bv), nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", a)
	}
}

func sortProducts(products []*domain.Product, s Sort) error {
	if _, err := fieldValue(&domain.Product{}, s.Field); err != nil {
		return fmt.Errorf("unsupported sort field %q", s.Field)
	}

	desc := s.Order == SortOrderDesc
	sort.SliceStable(products, func(i, j int) bool {
		a, _ := fieldValue(products[i], s.Field)
		b, _ := fieldValue(products[j], s.Field)
		cmp, _ := compare(a, b)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return nil
}

type inMemoryCategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]*domain.Category
}

// NewInMemoryCategoryRepository creates an empty in-process CategoryRepository
func NewInMemoryCategoryRepository() CategoryRepository {
	return &inMemoryCategoryRepository{categories: make(map[string]*domain.Category)}
}

func (r *inMemoryCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *inMemoryCategoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]*domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		copied := *c
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (r *inMemoryCategoryRepository) FindByNameIgnoreCase(ctx context.Context, name string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if strings.EqualFold(c.Name, name) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (r *inMemoryCategoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *category
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}

	for id, c := range r.categories {
		if id != saved.ID && strings.EqualFold(c.Name, saved.Name) {
			return nil, ErrDuplicateCategoryName
		}
	}

	stored := saved
	r.categories[saved.ID] = &stored
	return &saved, nil
}

func (r *inMemoryCategoryRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *inMemoryCategoryRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.categories[id]
	return ok, nil
}
