package transport

import (
	"net/http"

	"catalog-service/internal/middleware"
	"catalog-service/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryHandler handles HTTP requests for category operations
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{id}", h.GetCategory)

		r.With(guards.Write...).Post("/", h.CreateCategory)
		r.With(guards.Write...).Put("/{id}", h.UpdateCategory)
		r.With(guards.Delete...).Delete("/{id}", h.DeleteCategory)
	})
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, r, h.logger, err)
		return
	}

	category, err := h.categoryService.CreateCategory(r.Context(), req.toDomain())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "createCategory", "")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	category, err := h.categoryService.GetCategory(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "getCategoryById", id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "getAllCategories", "")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, r, h.logger, err)
		return
	}

	category, err := h.categoryService.UpdateCategory(r.Context(), id, req.toDomain())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "updateCategory", id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.categoryService.DeleteCategory(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, "deleteCategory", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
