package services

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/repository"
)

type BudgetService struct {
	budgetRepo   *repository.BudgetRepository
	categoryRepo *repository.CategoryRepository
	validator    *validator.Validate
}

func NewBudgetService(budgetRepo *repository.BudgetRepository, categoryRepo *repository.CategoryRepository) *BudgetService {
	return &BudgetService{
		budgetRepo:   budgetRepo,
		categoryRepo: categoryRepo,
		validator:    validator.New(),
	}
}

// UpsertBudgetRequest is the budget create/replace payload
type UpsertBudgetRequest struct {
	CategoryID string          `json:"category_id" validate:"required,uuid4"`
	Amount     decimal.Decimal `json:"amount" validate:"required" example:"500.00"`
	Month      int             `json:"month" validate:"required,min=1,max=12"`
	Year       int             `json:"year" validate:"required,min=2000"`
}

// UpsertBudget handles creating or replacing a monthly budget
// @Summary Upsert a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Param request body UpsertBudgetRequest true "Budget"
// @Success 200 {object} models.Budget
// @Failure 403 {object} ErrorResponse "Category owned by someone else"
// @Failure 404 {object} ErrorResponse "Category not found"
// @Router /budgets [post]
func (s *BudgetService) UpsertBudget(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req UpsertBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !req.Amount.IsPositive() {
		SendErrorResponse(w, "Amount must be positive", http.StatusBadRequest, nil)
		return
	}

	category, err := s.categoryRepo.FindByID(req.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to verify category", http.StatusInternalServerError, nil)
		return
	}
	if category.UserID != userID {
		SendErrorResponse(w, "Access to this category denied", http.StatusForbidden, nil)
		return
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Month:      req.Month,
		Year:       req.Year,
	}
	if err := s.budgetRepo.Upsert(budget); err != nil {
		log.Printf("[BUDGET] Upsert failed: %v", err)
		SendErrorResponse(w, "Failed to save budget", http.StatusInternalServerError, nil)
		return
	}

	SendJSONResponse(w, http.StatusOK, budget)
}

// ListBudgets handles the paginated budget listing
// @Summary List budgets
// @Tags budgets
// @Produce json
// @Param month query int false "Filter by month"
// @Param year query int false "Filter by year"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Success 200 {object} PaginatedResponse
// @Router /budgets [get]
func (s *BudgetService) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	filter := repository.BudgetFilter{
		Month:  month,
		Year:   year,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	budgets, err := s.budgetRepo.List(userID, filter)
	if err != nil {
		log.Printf("[BUDGET] List failed: %v", err)
		SendErrorResponse(w, "Failed to list budgets", http.StatusInternalServerError, nil)
		return
	}
	total, err := s.budgetRepo.Count(userID, filter)
	if err != nil {
		log.Printf("[BUDGET] Count failed: %v", err)
		SendErrorResponse(w, "Failed to list budgets", http.StatusInternalServerError, nil)
		return
	}
	if budgets == nil {
		budgets = []models.Budget{}
	}

	SendJSONResponse(w, http.StatusOK, PaginatedResponse{
		Data: budgets,
		Meta: NewPaginationMeta(total, page, limit),
	})
}
