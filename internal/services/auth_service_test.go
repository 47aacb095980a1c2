package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/repository"
)

func setAuthTestConfig(t *testing.T) {
	t.Helper()
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 1)
	viper.Set("jwt.refresh_expiry_days", 7)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("argon2.salt_length", 16)
	t.Cleanup(viper.Reset)
}

func TestPasswordHashing(t *testing.T) {
	setAuthTestConfig(t)

	hashed, err := hashPassword("correct horse battery staple")
	assert.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hashed)

	assert.True(t, verifyPassword("correct horse battery staple", hashed))
	assert.False(t, verifyPassword("wrong password", hashed))
	assert.False(t, verifyPassword("correct horse battery staple", "not-a-stored-hash"))

	// Same password hashes differently each time because of the random salt.
	hashedAgain, err := hashPassword("correct horse battery staple")
	assert.NoError(t, err)
	assert.NotEqual(t, hashed, hashedAgain)
	assert.True(t, verifyPassword("correct horse battery staple", hashedAgain))
}

func TestSignedTokens(t *testing.T) {
	setAuthTestConfig(t)

	user := &models.User{ID: "user-1", Role: "USER"}

	t.Run("valid token verifies", func(t *testing.T) {
		token, err := signToken(user, time.Hour)
		assert.NoError(t, err)
		assert.NoError(t, verifySignedToken(token))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := signToken(user, -time.Hour)
		assert.NoError(t, err)
		assert.Error(t, verifySignedToken(token))
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		token, err := signToken(user, time.Hour)
		assert.NoError(t, err)
		assert.Error(t, verifySignedToken(token+"x"))
	})
}

func newAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthService(repository.NewUserRepository(db), repository.NewTokenRepository(db)), mock
}

var userCols = []string{"id", "name", "email", "password", "role", "created_at"}

func TestLogin(t *testing.T) {
	setAuthTestConfig(t)

	t.Run("valid credentials return a token pair", func(t *testing.T) {
		svc, mock := newAuthService(t)

		hashed, err := hashPassword("password123")
		assert.NoError(t, err)

		mock.ExpectQuery("SELECT id, name, email, password, role, created_at FROM users WHERE email = \\$1").
			WithArgs("user@example.com").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow("user-1", "Jane", "user@example.com", hashed, "USER", time.Now()))
		mock.ExpectQuery("INSERT INTO refresh_tokens").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		svc.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NoError(t, verifySignedToken(resp.AccessToken))
		assert.Equal(t, "user-1", resp.User.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		svc, mock := newAuthService(t)

		hashed, err := hashPassword("password123")
		assert.NoError(t, err)

		mock.ExpectQuery("SELECT id, name, email, password, role, created_at FROM users WHERE email = \\$1").
			WithArgs("user@example.com").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow("user-1", "Jane", "user@example.com", hashed, "USER", time.Now()))

		body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "not-the-password"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		svc.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		svc, mock := newAuthService(t)

		mock.ExpectQuery("SELECT id, name, email, password, role, created_at FROM users WHERE email = \\$1").
			WithArgs("ghost@example.com").
			WillReturnRows(sqlmock.NewRows(userCols))

		body, _ := json.Marshal(LoginRequest{Email: "ghost@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		svc.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		svc, _ := newAuthService(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader([]byte(`{"email":`)))
		rec := httptest.NewRecorder()

		svc.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefresh(t *testing.T) {
	setAuthTestConfig(t)

	tokenCols := []string{"id", "token", "user_id", "expires_at", "revoked", "created_at", "role"}

	issueRefreshToken := func(t *testing.T) string {
		t.Helper()
		token, err := signToken(&models.User{ID: "user-1", Role: "USER"}, time.Hour)
		assert.NoError(t, err)
		return token
	}

	t.Run("rotation revokes the presented token and issues a new pair", func(t *testing.T) {
		svc, mock := newAuthService(t)
		refresh := issueRefreshToken(t)

		mock.ExpectQuery("SELECT .* FROM refresh_tokens rt JOIN users u ON u.id = rt.user_id WHERE rt.token = \\$1").
			WithArgs(refresh).
			WillReturnRows(sqlmock.NewRows(tokenCols).
				AddRow("rt-1", refresh, "user-1", time.Now().Add(time.Hour), false, time.Now(), "USER"))
		mock.ExpectQuery("SELECT id, name, email, password, role, created_at FROM users WHERE id = \\$1").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow("user-1", "Jane", "user@example.com", "irrelevant", "USER", time.Now()))
		mock.ExpectExec("UPDATE refresh_tokens SET revoked = TRUE WHERE id = \\$1").
			WithArgs("rt-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO refresh_tokens").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		body, _ := json.Marshal(RefreshRequest{RefreshToken: refresh})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/refresh", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		svc.Refresh(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEqual(t, refresh, resp.RefreshToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		svc, mock := newAuthService(t)
		refresh := issueRefreshToken(t)

		mock.ExpectQuery("SELECT .* FROM refresh_tokens rt JOIN users u ON u.id = rt.user_id WHERE rt.token = \\$1").
			WithArgs(refresh).
			WillReturnRows(sqlmock.NewRows(tokenCols).
				AddRow("rt-1", refresh, "user-1", time.Now().Add(time.Hour), true, time.Now(), "USER"))

		body, _ := json.Marshal(RefreshRequest{RefreshToken: refresh})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/refresh", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		svc.Refresh(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token unknown to the store is rejected", func(t *testing.T) {
		svc, mock := newAuthService(t)
		refresh := issueRefreshToken(t)

		mock.ExpectQuery("SELECT .* FROM refresh_tokens rt JOIN users u ON u.id = rt.user_id WHERE rt.token = \\$1").
			WithArgs(refresh).
			WillReturnRows(sqlmock.NewRows(tokenCols))

		body, _ := json.Marshal(RefreshRequest{RefreshToken: refresh})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/refresh", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		svc.Refresh(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("garbage token never reaches the store", func(t *testing.T) {
		svc, mock := newAuthService(t)

		body, _ := json.Marshal(RefreshRequest{RefreshToken: "not.a.jwt"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/refresh", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		svc.Refresh(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
