package services

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/repository"
)

// TransactionService is the user-facing surface over the ledger: one-off
// transaction creation and the paginated history listing. Balance changes go
// exclusively through the ledger repository's atomic insert-and-adjust.
type TransactionService struct {
	ledgerRepo   *repository.LedgerRepository
	walletRepo   *repository.WalletRepository
	categoryRepo *repository.CategoryRepository
	validator    *validator.Validate
}

func NewTransactionService(ledgerRepo *repository.LedgerRepository, walletRepo *repository.WalletRepository, categoryRepo *repository.CategoryRepository) *TransactionService {
	return &TransactionService{
		ledgerRepo:   ledgerRepo,
		walletRepo:   walletRepo,
		categoryRepo: categoryRepo,
		validator:    validator.New(),
	}
}

// CreateTransactionRequest is the transaction creation payload
// @Description Transaction creation request
type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required" example:"42.50"`
	Type        string          `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Description string          `json:"description" validate:"max=200"`
	Date        time.Time       `json:"date" validate:"required"`
	WalletID    string          `json:"wallet_id" validate:"required,uuid4"`
	CategoryID  string          `json:"category_id" validate:"required,uuid4"`
}

// CreateTransaction handles transaction creation
// @Summary Create a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body CreateTransactionRequest true "Transaction"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 403 {object} ErrorResponse "Wallet or category owned by someone else"
// @Failure 404 {object} ErrorResponse "Wallet or category not found"
// @Router /transactions [post]
func (s *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req CreateTransactionRequest
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

	created, err := s.ledgerRepo.CreateWithBalanceUpdate(
		req.WalletID, req.CategoryID, req.Amount, req.Type, req.Date, req.Description)
	if err != nil {
		log.Printf("[TRANSACTION] Create failed: %v", err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSONResponse(w, http.StatusCreated, created)
}

// ListTransactions handles the paginated history listing
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Param wallet_id query string false "Filter by wallet"
// @Param start_date query string false "RFC3339 range start"
// @Param end_date query string false "RFC3339 range end"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Success 200 {object} PaginatedResponse
// @Router /transactions [get]
func (s *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := repository.TransactionFilter{
		WalletID: r.URL.Query().Get("wallet_id"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	if start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start_date")); err == nil {
		if end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end_date")); err == nil {
			filter.StartDate = start
			filter.EndDate = end
		}
	}

	transactions, err := s.ledgerRepo.List(userID, filter)
	if err != nil {
		log.Printf("[TRANSACTION] List failed: %v", err)
		SendErrorResponse(w, "Failed to list transactions", http.StatusInternalServerError, nil)
		return
	}
	total, err := s.ledgerRepo.Count(userID, filter)
	if err != nil {
		log.Printf("[TRANSACTION] Count failed: %v", err)
		SendErrorResponse(w, "Failed to list transactions", http.StatusInternalServerError, nil)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	SendJSONResponse(w, http.StatusOK, PaginatedResponse{
		Data: transactions,
		Meta: NewPaginationMeta(total, page, limit),
	})
}

func (s *TransactionService) checkOwnership(w http.ResponseWriter, userID, walletID, categoryID string) bool {
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
