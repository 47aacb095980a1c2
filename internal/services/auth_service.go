package services

import (
	cryptorand "crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/repository"
)

// AuthService handles registration, login and the refresh-token lifecycle.
// Access tokens are short-lived JWTs; refresh tokens are longer-lived JWTs
// persisted per issue and rotated on every use, so a replayed refresh token
// is rejected as revoked.
type AuthService struct {
	userRepo  *repository.UserRepository
	tokenRepo *repository.TokenRepository
	validator *validator.Validate
}

func NewAuthService(userRepo *repository.UserRepository, tokenRepo *repository.TokenRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		validator: validator.New(),
	}
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2" example:"John Doe"`
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"password123"`
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"password123"`
}

// AuthResponse represents a successful authentication
// @Description Authentication response structure
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// RefreshRequest carries the refresh token to rotate
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /users [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req RegisterRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		SendErrorResponse(w, "Email already registered", http.StatusConflict, nil)
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Printf("[AUTH] Registration lookup failed: %v", err)
		SendErrorResponse(w, "Registration failed", http.StatusInternalServerError, nil)
		return
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed: %v", err)
		SendErrorResponse(w, "Registration failed", http.StatusInternalServerError, nil)
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email, Password: hashed}
	if err := s.userRepo.Create(user); err != nil {
		log.Printf("[AUTH] Registration failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Registration failed", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Registered user %s", user.ID)
	SendJSONResponse(w, http.StatusCreated, user)
}

// Login handles user login
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /sessions [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	user, err := s.userRepo.FindByEmail(req.Email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !verifyPassword(req.Password, user.Password)) {
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}
	if err != nil {
		log.Printf("[AUTH] Login lookup failed: %v", err)
		SendErrorResponse(w, "Login failed", http.StatusInternalServerError, nil)
		return
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		log.Printf("[AUTH] Token issue failed for user %s: %v", user.ID, err)
		SendErrorResponse(w, "Login failed", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for user %s", user.ID)
	SendJSONResponse(w, http.StatusOK, resp)
}

// Refresh handles refresh-token rotation
// @Summary Rotate a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh request"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} ErrorResponse "Invalid, expired or revoked refresh token"
// @Router /sessions/refresh [post]
func (s *AuthService) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := verifySignedToken(req.RefreshToken); err != nil {
		SendErrorResponse(w, "Invalid or expired refresh token", http.StatusUnauthorized, nil)
		return
	}

	stored, _, err := s.tokenRepo.FindByToken(req.RefreshToken)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "Invalid refresh token", http.StatusUnauthorized, nil)
		return
	}
	if err != nil {
		log.Printf("[AUTH] Refresh lookup failed: %v", err)
		SendErrorResponse(w, "Refresh failed", http.StatusInternalServerError, nil)
		return
	}
	if stored.Revoked {
		SendErrorResponse(w, "Refresh token revoked", http.StatusUnauthorized, nil)
		return
	}

	user, err := s.userRepo.FindByID(stored.UserID)
	if err != nil {
		log.Printf("[AUTH] Refresh user lookup failed: %v", err)
		SendErrorResponse(w, "Refresh failed", http.StatusInternalServerError, nil)
		return
	}

	// Rotate: the presented token is single-use.
	if err := s.tokenRepo.Revoke(stored.ID); err != nil {
		log.Printf("[AUTH] Refresh revoke failed: %v", err)
		SendErrorResponse(w, "Refresh failed", http.StatusInternalServerError, nil)
		return
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		log.Printf("[AUTH] Token issue failed for user %s: %v", user.ID, err)
		SendErrorResponse(w, "Refresh failed", http.StatusInternalServerError, nil)
		return
	}

	SendJSONResponse(w, http.StatusOK, resp)
}

// GetProfile handles the authenticated profile lookup
// @Summary Get the authenticated user's profile
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /me [get]
func (s *AuthService) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := s.userRepo.FindByID(userID)
	if errors.Is(err, repository.ErrNotFound) {
		SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[AUTH] Profile lookup failed for %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch profile", http.StatusInternalServerError, nil)
		return
	}

	SendJSONResponse(w, http.StatusOK, user)
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	access, err := signToken(user, time.Duration(viper.GetInt("jwt.expiry_hours"))*time.Hour)
	if err != nil {
		return nil, err
	}

	refreshTTL := time.Duration(viper.GetInt("jwt.refresh_expiry_days")) * 24 * time.Hour
	refresh, err := signToken(user, refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Create(&models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(refreshTTL),
	}); err != nil {
		return nil, err
	}

	return &AuthResponse{AccessToken: access, RefreshToken: refresh, User: *user}, nil
}

// decodeBody decodes and validates a JSON request body, writing the error
// response itself on failure.
func (s *AuthService) decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := s.validator.Struct(dest); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func signToken(user *models.User, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	})
	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func verifySignedToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
