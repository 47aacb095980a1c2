package services

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/repository"
)

type GoalService struct {
	goalRepo  *repository.GoalRepository
	validator *validator.Validate
}

func NewGoalService(goalRepo *repository.GoalRepository) *GoalService {
	return &GoalService{
		goalRepo:  goalRepo,
		validator: validator.New(),
	}
}

// CreateGoalRequest is the savings goal creation payload
type CreateGoalRequest struct {
	Name         string          `json:"name" validate:"required,min=1,max=100" example:"Emergency fund"`
	TargetAmount decimal.Decimal `json:"target_amount" validate:"required" example:"5000.00"`
	Deadline     *time.Time      `json:"deadline,omitempty"`
}

// AddFundsRequest is the payload for moving money into a goal
type AddFundsRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required" example:"250.00"`
}

// CreateGoal handles goal creation
// @Summary Create a savings goal
// @Tags goals
// @Accept json
// @Produce json
// @Param request body CreateGoalRequest true "Goal"
// @Success 201 {object} models.Goal
// @Router /goals [post]
func (s *GoalService) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !req.TargetAmount.IsPositive() {
		SendErrorResponse(w, "Target amount must be positive", http.StatusBadRequest, nil)
		return
	}

	goal := &models.Goal{
		UserID:       userID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Deadline:     req.Deadline,
	}
	if err := s.goalRepo.Create(goal); err != nil {
		log.Printf("[GOAL] Create failed: %v", err)
		SendErrorResponse(w, "Failed to create goal", http.StatusInternalServerError, nil)
		return
	}

	SendJSONResponse(w, http.StatusCreated, goal)
}

// AddFunds handles moving money into a goal
// @Summary Add funds to a goal
// @Tags goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param request body AddFundsRequest true "Funds"
// @Success 200 {object} models.Goal
// @Failure 403 {object} ErrorResponse "Goal owned by someone else"
// @Failure 404 {object} ErrorResponse "Goal not found"
// @Router /goals/{id}/funds [post]
func (s *GoalService) AddFunds(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req AddFundsRequest
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

	goal, err := s.goalRepo.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Goal not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[GOAL] Lookup %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to fetch goal", http.StatusInternalServerError, nil)
		return
	}
	if goal.UserID != userID {
		SendErrorResponse(w, "Access to this goal denied", http.StatusForbidden, nil)
		return
	}

	updated, err := s.goalRepo.AddFunds(id, req.Amount)
	if err != nil {
		log.Printf("[GOAL] Add funds to %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to add funds", http.StatusInternalServerError, nil)
		return
	}

	SendJSONResponse(w, http.StatusOK, updated)
}

// ListGoals handles listing the owner's goals
// @Summary List goals
// @Tags goals
// @Produce json
// @Success 200 {array} models.Goal
// @Router /goals [get]
func (s *GoalService) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	goals, err := s.goalRepo.ListByUser(userID)
	if err != nil {
		log.Printf("[GOAL] List failed: %v", err)
		SendErrorResponse(w, "Failed to list goals", http.StatusInternalServerError, nil)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	SendJSONResponse(w, http.StatusOK, goals)
}
