package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/config"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func setupAuthTestHandler(db *sqlx.DB) (*AuthHandler, *jwt.Service) {
	jwtService := jwt.NewService("test-secret", "test-refresh-secret", 1*time.Hour, 7*24*time.Hour)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{}
	cfg.Security.BcryptCost = bcrypt.MinCost

	handler := NewAuthHandler(
		jwtService,
		database.NewUtilizadorRepository(db),
		database.NewRefreshTokenRepository(db),
		cfg,
		logger,
	)
	return handler, jwtService
}

func utilizadorRows(id int64, nome, email, passwordHash string, isSupport bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "nome", "email", "telemovel", "palavra_pass", "is_support", "created_at", "updated_at",
	}).AddRow(id, nome, email, nil, passwordHash, isSupport, time.Now(), time.Now())
}

func postJSON(handler gin.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	payload, _ := json.Marshal(body)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler(c)
	return w
}

func TestSignup_Success(t *testing.T) {
	db, mock := setupAuthTestDB(t)
	handler, _ := setupAuthTestHandler(db)

	mock.ExpectQuery("SELECT (.+) FROM utilizadores WHERE email = \\$1").
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO utilizadores").
		WillReturnRows(utilizadorRows(1, "Ana Silva", "ana@example.com", "hash", false))

	w := postJSON(handler.Signup, gin.H{
		"nome":         "Ana Silva",
		"email":        "ana@example.com",
		"palavra_pass": "segredo123",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "ana@example.com", user["email"])
	assert.NotContains(t, user, "palavra_pass")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignup_EmailTaken(t *testing.T) {
	db, mock := setupAuthTestDB(t)
	handler, _ := setupAuthTestHandler(db)

	mock.ExpectQuery("SELECT (.+) FROM utilizadores WHERE email = \\$1").
		WithArgs("ana@example.com").
		WillReturnRows(utilizadorRows(1, "Ana Silva", "ana@example.com", "hash", false))

	w := postJSON(handler.Signup, gin.H{
		"nome":         "Ana Silva",
		"email":        "ana@example.com",
		"palavra_pass": "segredo123",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "EMAIL_TAKEN", resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignup_InvalidBody(t *testing.T) {
	db, mock := setupAuthTestDB(t)
	handler, _ := setupAuthTestHandler(db)

	w := postJSON(handler.Signup, gin.H{"nome": "Ana Silva"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_Success(t *testing.T) {
	db, mock := setupAuthTestDB(t)
	handler, _ := setupAuthTestHandler(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM utilizadores WHERE email = \\$1").
		WithArgs("ana@example.com").
		WillReturnRows(utilizadorRows(1, "Ana Silva", "ana@example.com", string(hash), false))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := postJSON(handler.Login, gin.H{
		"email":        "ana@example.com",
		"palavra_pass": "segredo123",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	tokens := resp["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	db, mock := setupAuthTestDB(t)
	handler, _ := setupAuthTestHandler(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM utilizadores WHERE email = \\$1").
		WithArgs("ana@example.com").
		WillReturnRows(utilizadorRows(1, "Ana Silva", "ana@example.com", string(hash), false))

	w := postJSON(handler.Login, gin.H{
		"email":        "ana@example.com",
		"palavra_pass": "errada",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnknownEmail(t *testing.T) {
	db, mock := setupAuthTestDB(t)
	handler, _ := setupAuthTestHandler(db)

	mock.ExpectQuery("SELECT (.+) FROM utilizadores WHERE email = \\$1").
		WithArgs("ninguem@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := postJSON(handler.Login, gin.H{
		"email":        "ninguem@example.com",
		"palavra_pass": "segredo123",
	})

	// Indistinguishable from a wrong password
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RevokedToken(t *testing.T) {
	db, mock := setupAuthTestDB(t)
	handler, jwtService := setupAuthTestHandler(db)

	refreshToken, err := jwtService.GenerateRefreshToken(1, "ana@example.com")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE token_hash").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "token_hash", "device_type", "os", "ip_address",
			"user_agent", "created_at", "expires_at", "last_used_at", "revoked", "revoked_at",
		}).AddRow(
			int64(4), int64(1), "hash", nil, nil, nil,
			nil, time.Now(), time.Now().Add(24*time.Hour), nil, true, time.Now(),
		))

	w := postJSON(handler.Refresh, gin.H{"refresh_token": refreshToken})

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TOKEN_REVOKED", resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_MalformedToken(t *testing.T) {
	db, mock := setupAuthTestDB(t)
	handler, _ := setupAuthTestHandler(db)

	w := postJSON(handler.Refresh, gin.H{"refresh_token": "not-a-jwt"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
