package service

import (
	"context"
	"errors"
	"strings"

	"catalog-service/internal/cache"
	"catalog-service/internal/domain"
	"catalog-service/internal/logger"
	"catalog-service/internal/repository"

	"go.uber.org/zap"
)

// CategoryService defines the interface for category business logic. Every
// returned error is a *domain.CategoryServiceError.
type CategoryService interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cache        cache.Cache[*domain.Category]
	logger       *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	categoryCache cache.Cache[*domain.Category],
	logger *zap.Logger,
) CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &categoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        categoryCache,
		logger:       logger,
	}
}

func (s *categoryService) fail(ctx context.Context, se domain.ServiceError) error {
	logServiceError(logger.FromContext(ctx, s.logger), se)
	return domain.NewCategoryServiceError(se)
}

func duplicateName(name string) *domain.ValidationError {
	return &domain.ValidationError{Field: "name", Reason: "duplicate category: " + name}
}

// CreateCategory persists a new category after rejecting a name already
// taken, compared case-insensitively
func (s *categoryService) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if se := validateCategory(category); se != nil {
		return nil, s.fail(ctx, se)
	}

	existing, err := s.categoryRepo.FindByNameIgnoreCase(ctx, category.Name)
	if err != nil && !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, s.fail(ctx, domain.NewDatabaseError("create category", err))
	}
	if existing != nil {
		return nil, s.fail(ctx, duplicateName(category.Name))
	}

	toSave := *category
	toSave.ID = ""

	saved, err := s.categoryRepo.Save(ctx, &toSave)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateCategoryName) {
			return nil, s.fail(ctx, duplicateName(category.Name))
		}
		return nil, s.fail(ctx, domain.NewDatabaseError("create category", err))
	}

	logger.FromContext(ctx, s.logger).Info("Category created", zap.String("category_id", saved.ID))
	return saved, nil
}

// GetCategory retrieves a category by ID, consulting the category cache first
func (s *categoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		c := *cached
		return &c, nil
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, s.fail(ctx, &domain.NotFoundError{Entity: "Category", ID: id})
		}
		return nil, s.fail(ctx, domain.NewDatabaseError("find category by id", err))
	}

	c := *category
	s.cache.Set(ctx, id, &c)
	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, domain.NewDatabaseError("find all categories", err))
	}
	return categories, nil
}

// UpdateCategory replaces name, description and parent reference. The id and
// active flag are kept.
func (s *categoryService) UpdateCategory(ctx context.Context, id string, category *domain.Category) (*domain.Category, error) {
	if se := validateCategory(category); se != nil {
		return nil, s.fail(ctx, se)
	}

	existing, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, s.fail(ctx, &domain.NotFoundError{Entity: "Category", ID: id})
		}
		return nil, s.fail(ctx, domain.NewDatabaseError("find category by id", err))
	}

	if !strings.EqualFold(existing.Name, category.Name) {
		clash, err := s.categoryRepo.FindByNameIgnoreCase(ctx, category.Name)
		if err != nil && !errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, s.fail(ctx, domain.NewDatabaseError("update category", err))
		}
		if clash != nil && clash.ID != id {
			return nil, s.fail(ctx, duplicateName(category.Name))
		}
	}

	updated := *existing
	updated.Name = category.Name
	updated.Description = category.Description
	updated.ParentCategoryID = category.ParentCategoryID

	saved, err := s.categoryRepo.Save(ctx, &updated)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateCategoryName) {
			return nil, s.fail(ctx, duplicateName(category.Name))
		}
		return nil, s.fail(ctx, domain.NewDatabaseError("update category", err))
	}
	s.cache.Delete(context.WithoutCancel(ctx), id)

	return saved, nil
}

// DeleteCategory removes a category that exists and no product references
func (s *categoryService) DeleteCategory(ctx context.Context, id string) error {
	exists, err := s.categoryRepo.ExistsByID(ctx, id)
	if err != nil {
		return s.fail(ctx, domain.NewDatabaseError("delete category", err))
	}
	if !exists {
		return s.fail(ctx, &domain.NotFoundError{Entity: "Category", ID: id})
	}

	inUse, err := s.productRepo.Count(ctx, repository.Query{}.Where(repository.Eq(repository.FieldCategoryID, id)))
	if err != nil {
		return s.fail(ctx, domain.NewDatabaseError("delete category", err))
	}
	if inUse > 0 {
		return s.fail(ctx, &domain.BusinessRuleError{
			Rule:    "category in use",
			Details: "category " + id + " is referenced by products",
		})
	}

	if err := s.categoryRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return s.fail(ctx, &domain.NotFoundError{Entity: "Category", ID: id})
		}
		return s.fail(ctx, domain.NewDatabaseError("delete category", err))
	}
	s.cache.Delete(context.WithoutCancel(ctx), id)

	logger.FromContext(ctx, s.logger).Info("Category deleted", zap.String("category_id", id))
	return nil
}

func validateCategory(c *domain.Category) domain.ServiceError {
	switch {
	case c == nil:
		return &domain.ValidationError{Field: "category", Reason: "must not be empty"}
	case strings.TrimSpace(c.Name) == "":
		return &domain.ValidationError{Field: "name", Reason: "must not be blank"}
	}
	return nil
}
