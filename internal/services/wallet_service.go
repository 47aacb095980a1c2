package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fintrack/backend/internal/cache"
	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/repository"
)

const walletListTTL = 60 * time.Second

// WalletService handles wallet CRUD. The per-user list is served through the
// Redis cache and invalidated on every write.
type WalletService struct {
	walletRepo *repository.WalletRepository
	cache      *cache.Cache
	validator  *validator.Validate
}

func NewWalletService(walletRepo *repository.WalletRepository, c *cache.Cache) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		cache:      c,
		validator:  validator.New(),
	}
}

// WalletRequest is the wallet create/update payload
type WalletRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" example:"Checking"`
}

// WalletDetail is a wallet with its latest movements
type WalletDetail struct {
	models.Wallet
	Transactions []models.Transaction `json:"transactions"`
}

func walletListKey(userID string) string {
	return fmt.Sprintf("wallets:list:%s", userID)
}

// CreateWallet handles wallet creation
// @Summary Create a wallet
// @Tags wallets
// @Accept json
// @Produce json
// @Param request body WalletRequest true "Wallet"
// @Success 201 {object} models.Wallet
// @Router /wallets [post]
func (s *WalletService) CreateWallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req WalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	wallet := &models.Wallet{UserID: userID, Name: req.Name}
	if err := s.walletRepo.Create(wallet); err != nil {
		log.Printf("[WALLET] Create failed: %v", err)
		SendErrorResponse(w, "Failed to create wallet", http.StatusInternalServerError, nil)
		return
	}

	s.cache.Del(r.Context(), walletListKey(userID))
	SendJSONResponse(w, http.StatusCreated, wallet)
}

// ListWallets handles listing the owner's wallets
// @Summary List wallets
// @Tags wallets
// @Produce json
// @Success 200 {array} models.Wallet
// @Router /wallets [get]
func (s *WalletService) ListWallets(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	key := walletListKey(userID)

	var wallets []models.Wallet
	if s.cache.Get(r.Context(), key, &wallets) {
		SendJSONResponse(w, http.StatusOK, wallets)
		return
	}

	wallets, err := s.walletRepo.FindAllByUser(userID)
	if err != nil {
		log.Printf("[WALLET] List failed: %v", err)
		SendErrorResponse(w, "Failed to list wallets", http.StatusInternalServerError, nil)
		return
	}
	if wallets == nil {
		wallets = []models.Wallet{}
	}

	s.cache.Set(r.Context(), key, wallets, walletListTTL)
	SendJSONResponse(w, http.StatusOK, wallets)
}

// GetWallet handles the wallet detail lookup
// @Summary Get a wallet with recent transactions
// @Tags wallets
// @Produce json
// @Param id path string true "Wallet ID"
// @Success 200 {object} WalletDetail
// @Failure 404 {object} ErrorResponse "Not found or not owned"
// @Router /wallets/{id} [get]
func (s *WalletService) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	wallet, err := s.walletRepo.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && wallet.UserID != userID) {
		SendErrorResponse(w, "Wallet not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[WALLET] Get %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to fetch wallet", http.StatusInternalServerError, nil)
		return
	}

	transactions, err := s.walletRepo.RecentTransactions(id, 10)
	if err != nil {
		log.Printf("[WALLET] Recent transactions for %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to fetch wallet", http.StatusInternalServerError, nil)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	SendJSONResponse(w, http.StatusOK, WalletDetail{Wallet: *wallet, Transactions: transactions})
}

// UpdateWallet handles renaming
// @Summary Rename a wallet
// @Tags wallets
// @Accept json
// @Param id path string true "Wallet ID"
// @Param request body WalletRequest true "Wallet"
// @Success 204 "Updated"
// @Failure 404 {object} ErrorResponse "Not found or not owned"
// @Router /wallets/{id} [put]
func (s *WalletService) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req WalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	err := s.walletRepo.UpdateName(id, userID, req.Name)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Wallet not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[WALLET] Update %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to update wallet", http.StatusInternalServerError, nil)
		return
	}

	s.cache.Del(r.Context(), walletListKey(userID))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteWallet handles deletion
// @Summary Delete a wallet
// @Tags wallets
// @Param id path string true "Wallet ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse "Not found or not owned"
// @Router /wallets/{id} [delete]
func (s *WalletService) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	err := s.walletRepo.Delete(id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Wallet not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[WALLET] Delete %s failed: %v", id, err)
		SendErrorResponse(w, "Failed to delete wallet", http.StatusInternalServerError, nil)
		return
	}

	s.cache.Del(r.Context(), walletListKey(userID))
	w.WriteHeader(http.StatusNoContent)
}
