package services

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/repository"
)

type CategoryService struct {
	categoryRepo *repository.CategoryRepository
	validator    *validator.Validate
}

func NewCategoryService(categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		validator:    validator.New(),
	}
}

// CreateCategoryRequest is the category creation payload
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" example:"Groceries"`
	Type string `json:"type" validate:"required,oneof=INCOME EXPENSE"`
}

// UpdateCategoryRequest is the category rename payload
type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateCategory handles category creation
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body CreateCategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Router /categories [post]
func (s *CategoryService) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	category := &models.Category{UserID: userID, Name: req.Name, Type: req.Type}
	if err := s.categoryRepo.Create(category); err != nil {
		log.Printf("[CATEGORY] Create failed: %v", err)
		SendErrorResponse(w, "Failed to create category", http.StatusInternalServerError, nil)
		return
	}

	SendJSONResponse(w, http.StatusCreated, category)
}

// ListCategories handles listing the owner's categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *CategoryService) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	categories, err := s.categoryRepo.ListByUser(userID)
	if err != nil {
		log.Printf("[CATEGORY] List failed: %v", err)
		SendErrorResponse(w, "Failed to list categories", http.StatusInternalServerError, nil)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	SendJSONResponse(w, http.StatusOK, categories)
}

// UpdateCategory handles renaming
// @Summary Rename a category
// @Tags categories
// @Accept json
// @Param id path string true "Category ID"
// @Param request body UpdateCategoryRequest true "Category"
// @Success 204 "Updated"
// @Failure 404 {object} ErrorResponse "Not found or not owned"
// @Router /categories/{id} [put]
func (s *CategoryService) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	err := s.categoryRepo.Update(id, userID, req.Name)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[CATEGORY] Update %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to update category", http.StatusInternalServerError, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategory handles deletion
// @Summary Delete a category
// @Tags categories
// @Param id path string true "Category ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse "Not found or not owned"
// @Router /categories/{id} [delete]
func (s *CategoryService) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	err := s.categoryRepo.Delete(id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[CATEGORY] Delete %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
