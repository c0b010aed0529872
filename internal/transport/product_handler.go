package transport

import (
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/logger"
	"catalog-service/internal/middleware"
	"catalog-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Guards holds the middleware applied to mutating routes. Empty slices leave
// the routes open.
type Guards struct {
	Write  []func(http.Handler) http.Handler
	Delete []func(http.Handler) http.Handler
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService    service.ProductService
	lowStockThreshold int
	logger            *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, lowStockThreshold int, logger *zap.Logger) *ProductHandler {
	if lowStockThreshold <= 0 {
		lowStockThreshold = service.DefaultLowStockThreshold
	}
	return &ProductHandler{
		productService:    productService,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchByName)
		r.Get("/category/{categoryId}", h.ListByCategory)
		r.Get("/price-range", h.ListByPriceRange)
		r.Get("/low-stock", h.ListLowStock)
		r.Get("/{id}", h.GetProduct)
		r.Get("/{id}/inventory", h.GetProductWithInventory)

		r.With(guards.Write...).Post("/", h.CreateProduct)
		r.With(guards.Write...).Put("/{id}", h.UpdateProduct)
		r.With(guards.Delete...).Delete("/{id}", h.DeleteProduct)
	})
}

// CreateProduct handles product creation
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, r, h.logger, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), req.toDomain())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "createProduct", "")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "getProductById", id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// GetProductWithInventory returns a product carrying the live stock level
func (h *ProductHandler) GetProductWithInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.productService.GetProductWithInventory(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "getProductWithInventory", id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListProducts runs the multi-criteria search over active products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := service.ProductFilter{
		Name:       q.Get("name"),
		CategoryID: q.Get("categoryId"),
		SortBy:     q.Get("sortBy"),
		Direction:  q.Get("direction"),
	}

	var ok bool
	if filter.MinPrice, ok = h.optionalDecimal(w, r, "minPrice"); !ok {
		return
	}
	if filter.MaxPrice, ok = h.optionalDecimal(w, r, "maxPrice"); !ok {
		return
	}

	products, err := h.productService.SearchProducts(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "getAllProducts", "")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// SearchByName returns active products whose name contains the query
func (h *ProductHandler) SearchByName(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	products, err := h.productService.SearchProductsByName(r.Context(), query)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "searchProducts", "")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ListByCategory returns the active products of one category
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")

	products, err := h.productService.ListProductsByCategory(r.Context(), categoryID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "getProductsByCategory", categoryID)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ListByPriceRange returns active products priced within both bounds
func (h *ProductHandler) ListByPriceRange(w http.ResponseWriter, r *http.Request) {
	minPrice, ok := h.optionalDecimal(w, r, "minPrice")
	if !ok {
		return
	}
	maxPrice, ok := h.optionalDecimal(w, r, "maxPrice")
	if !ok {
		return
	}
	if minPrice == nil || maxPrice == nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "minPrice and maxPrice are required")
		return
	}

	products, err := h.productService.ListProductsByPriceRange(r.Context(), *minPrice, *maxPrice)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "getProductsByPriceRange", "")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ListLowStock returns active products with stock below the threshold
func (h *ProductHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.lowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "threshold must be an integer")
			return
		}
		threshold = parsed
	}

	products, err := h.productService.ListLowStockProducts(r.Context(), threshold)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "getLowStockProducts", "")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// UpdateProduct replaces a product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, r, h.logger, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, req.toDomain())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "updateProduct", id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, "deleteProduct", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// optionalDecimal parses a decimal query parameter. It writes a 400 and
// returns false when the value is present but malformed.
func (h *ProductHandler) optionalDecimal(w http.ResponseWriter, r *http.Request, name string) (*decimal.Decimal, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		logger.FromContext(r.Context(), h.logger).Debug("Invalid decimal parameter",
			zap.String("param", name),
			zap.String("value", raw),
		)
		middleware.RespondWithError(w, http.StatusBadRequest, name+" must be a decimal number")
		return nil, false
	}
	return &d, true
}
