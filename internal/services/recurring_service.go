package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/repository"
	"github.com/fintrack/backend/internal/schedule"
)

// Outcomes of one occurrence execution.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// ProcessResult is the per-job outcome of one batch tick.
type ProcessResult struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// RecurringService owns recurring transaction instructions: the user-facing
// create/list/cancel surface and the batch engine that turns due instructions
// into ledger transactions exactly once per occurrence.
type RecurringService struct {
	db            *sql.DB
	recurringRepo *repository.RecurringRepository
	ledgerRepo    *repository.LedgerRepository
	walletRepo    *repository.WalletRepository
	categoryRepo  *repository.CategoryRepository
	validator     *validator.Validate
}

func NewRecurringService(db *sql.DB, recurringRepo *repository.RecurringRepository, ledgerRepo *repository.LedgerRepository, walletRepo *repository.WalletRepository, categoryRepo *repository.CategoryRepository) *RecurringService {
	return &RecurringService{
		db:            db,
		recurringRepo: recurringRepo,
		ledgerRepo:    ledgerRepo,
		walletRepo:    walletRepo,
		categoryRepo:  categoryRepo,
		validator:     validator.New(),
	}
}

// ProcessDue lists every instruction due at now and executes each one
// independently. A failing job never aborts the rest of the batch; its error
// lands in that job's result entry. All jobs in one tick share the same
// execution instant, so a late-firing trigger does not compound drift.
func (s *RecurringService) ProcessDue(now time.Time) ([]ProcessResult, error) {
	due, err := s.recurringRepo.FindDue(now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due recurring transactions: %w", err)
	}

	log.Printf("[ENGINE] Detected %d due recurring transactions", len(due))

	results := make([]ProcessResult, 0, len(due))
	for _, job := range due {
		result := s.executeOccurrence(job.ID, now)
		if result.Status == StatusFailed {
			log.Printf("[ENGINE] Failed to process %s: %s", job.ID, result.Error)
		}
		results = append(results, result)
	}
	return results, nil
}

// executeOccurrence runs the execute-and-advance protocol for one job inside
// a single database transaction:
//
//  1. re-read the row under lock; if it vanished, was deactivated, or its
//     next_run moved past now, a concurrent tick already handled this
//     occurrence and the job is skipped,
//  2. create the ledger transaction and adjust the wallet balance,
//  3. compute the next occurrence from the execution instant,
//  4. advance last_run/next_run.
//
// Any failure rolls all of it back, leaving the job due for the next tick.
// The next_run guard in step 1 is what makes re-execution a no-op.
func (s *RecurringService) executeOccurrence(id string, now time.Time) ProcessResult {
	tx, err := s.db.Begin()
	if err != nil {
		return ProcessResult{ID: id, Status: StatusFailed, Error: err.Error()}
	}
	defer tx.Rollback()

	job, err := s.recurringRepo.FindFreshTx(tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ProcessResult{ID: id, Status: StatusSkipped}
	}
	if err != nil {
		return ProcessResult{ID: id, Status: StatusFailed, Error: err.Error()}
	}
	if !job.IsActive || job.NextRun.After(now) {
		return ProcessResult{ID: id, Status: StatusSkipped}
	}

	description := job.Description
	if description == "" {
		description = "Recurring: " + job.Interval
	}

	created, err := s.ledgerRepo.CreateWithBalanceUpdateTx(
		tx, job.WalletID, job.CategoryID, job.Amount, job.Type, now, description)
	if err != nil {
		return ProcessResult{ID: id, Status: StatusFailed, Error: err.Error()}
	}

	next, err := schedule.NextOccurrence(job.Interval, now)
	if err != nil {
		return ProcessResult{ID: id, Status: StatusFailed, Error: err.Error()}
	}

	if err := s.recurringRepo.AdvanceTx(tx, id, now, next); err != nil {
		return ProcessResult{ID: id, Status: StatusFailed, Error: err.Error()}
	}

	if err := tx.Commit(); err != nil {
		return ProcessResult{ID: id, Status: StatusFailed, Error: err.Error()}
	}

	return ProcessResult{ID: id, Status: StatusSuccess, TransactionID: created.ID}
}

// CreateRecurringRequest is the job creation payload
// @Description Recurring transaction creation request
type CreateRecurringRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required" example:"100.00"`       // Positive amount
	Type        string          `json:"type" validate:"required,oneof=INCOME EXPENSE"`     // Movement direction
	Description string          `json:"description" validate:"max=200"`                    // Optional label
	Interval    string          `json:"interval" validate:"required" example:"0 0 1 * *"`  // Five-field cron expression
	WalletID    string          `json:"wallet_id" validate:"required,uuid4"`               // Target wallet
	CategoryID  string          `json:"category_id" validate:"required,uuid4"`             // Target category
}

// CreateRecurring handles job creation
// @Summary Create a recurring transaction
// @Tags recurring
// @Accept json
// @Produce json
// @Param request body CreateRecurringRequest true "Recurring transaction"
// @Success 201 {object} models.RecurringTransaction
// @Failure 400 {object} ErrorResponse "Invalid payload or cron expression"
// @Failure 403 {object} ErrorResponse "Wallet or category owned by someone else"
// @Failure 404 {object} ErrorResponse "Wallet or category not found"
// @Router /recurring [post]
func (s *RecurringService) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req CreateRecurringRequest
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

	if !s.checkOwnership(w, userID, req.WalletID, req.CategoryID) {
		return
	}

	// Seed next_run: validates the expression and anchors the schedule at
	// creation time.
	nextRun, err := schedule.NextOccurrence(req.Interval, time.Now())
	if err != nil {
		SendErrorResponse(w, "Invalid cron expression", http.StatusBadRequest, nil)
		return
	}

	rt := &models.RecurringTransaction{
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
		Interval:    req.Interval,
		NextRun:     nextRun,
		WalletID:    req.WalletID,
		CategoryID:  req.CategoryID,
	}
	if err := s.recurringRepo.Create(rt); err != nil {
		log.Printf("[RECURRING] Create failed: %v", err)
		SendErrorResponse(w, "Failed to create recurring transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSONResponse(w, http.StatusCreated, rt)
}

// ListRecurring handles listing the owner's jobs
// @Summary List recurring transactions
// @Tags recurring
// @Produce json
// @Success 200 {array} models.RecurringTransaction
// @Router /recurring [get]
func (s *RecurringService) ListRecurring(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	list, err := s.recurringRepo.ListByOwner(userID)
	if err != nil {
		log.Printf("[RECURRING] List failed: %v", err)
		SendErrorResponse(w, "Failed to list recurring transactions", http.StatusInternalServerError, nil)
		return
	}
	if list == nil {
		list = []models.RecurringTransaction{}
	}
	SendJSONResponse(w, http.StatusOK, list)
}

// CancelRecurring handles soft-deactivation
// @Summary Cancel a recurring transaction
// @Tags recurring
// @Param id path string true "Recurring transaction ID"
// @Success 204 "Cancelled"
// @Failure 404 {object} ErrorResponse "Not found or not owned"
// @Router /recurring/{id} [delete]
func (s *RecurringService) CancelRecurring(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	err := s.recurringRepo.Deactivate(id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Recurring transaction not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[RECURRING] Cancel %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to cancel recurring transaction", http.StatusInternalServerError, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkOwnership verifies the wallet and category exist and belong to userID,
// writing the error response itself when they do not.
func (s *RecurringService) checkOwnership(w http.ResponseWriter, userID, walletID, categoryID string) bool {
	wallet, err := s.walletRepo.FindByID(walletID)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Wallet not found", http.StatusNotFound, nil)
		return false
	}
	if err != nil {
		SendErrorResponse(w, "Failed to verify wallet", http.StatusInternalServerError, nil)
		return false
	}
	if wallet.UserID != userID {
		SendErrorResponse(w, "Access to this wallet denied", http.StatusForbidden, nil)
		return false
	}

	category, err := s.categoryRepo.FindByID(categoryID)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return false
	}
	if err != nil {
		SendErrorResponse(w, "Failed to verify category", http.StatusInternalServerError, nil)
		return false
	}
	if category.UserID != userID {
		SendErrorResponse(w, "Access to this category denied", http.StatusForbidden, nil)
		return false
	}
	return true
}
