package handlers

import (
	"net/http"
	"time"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/config"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/middleware"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/utils"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	jwtService       *jwt.Service
	utilizadorRepo   *database.UtilizadorRepository
	refreshTokenRepo *database.RefreshTokenRepository
	config           *config.Config
	logger           *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	jwtService *jwt.Service,
	utilizadorRepo *database.UtilizadorRepository,
	refreshTokenRepo *database.RefreshTokenRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		jwtService:       jwtService,
		utilizadorRepo:   utilizadorRepo,
		refreshTokenRepo: refreshTokenRepo,
		config:           cfg,
		logger:           logger,
	}
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	existing, err := h.utilizadorRepo.GetByEmail(req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check existing email")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "signup_failed",
			Message: "Failed to create account",
		})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "email_taken",
			Message: "An account with this email already exists",
			Code:    "EMAIL_TAKEN",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PalavraPass), h.config.Security.BcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "signup_failed",
			Message: "Failed to create account",
		})
		return
	}

	user, err := h.utilizadorRepo.Create(req.Nome, req.Email, req.Telemovel, string(hash))
	if err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "signup_failed",
			Message: "Failed to create account",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User signed up")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user":    user,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	user, err := h.utilizadorRepo.GetByEmail(req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch user for login")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "login_failed",
			Message: "Failed to log in",
		})
		return
	}

	// Same response for unknown email and wrong password
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PalavraPass), []byte(req.PalavraPass)) != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Email or password is incorrect",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	tokens, err := h.issueTokens(c, user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate tokens",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"ip":      utils.GetRealIP(c),
	}).Info("User logged in")

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// Refresh handles POST /api/v1/auth/refresh. Tokens rotate: the old
// refresh token is revoked once the new pair is stored.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "refresh_token is required",
		})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired refresh token",
		})
		return
	}

	stored, err := h.refreshTokenRepo.Get(req.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up refresh token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_check_failed",
			Message: "Failed to verify token status",
		})
		return
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "token_revoked",
			Message: "Refresh token is no longer valid",
			Code:    "TOKEN_REVOKED",
		})
		return
	}

	user, err := h.utilizadorRepo.GetByID(claims.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch user for refresh")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "user_fetch_failed",
			Message: "Failed to fetch user information",
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "user_not_found",
			Message: "User no longer exists",
		})
		return
	}

	if err := h.refreshTokenRepo.UpdateLastUsed(req.RefreshToken); err != nil {
		h.logger.WithError(err).Warn("Failed to update refresh token last use")
	}

	tokens, err := h.issueTokens(c, user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate tokens",
		})
		return
	}

	// Revoke the old token only after the new pair is stored, so a
	// failure here never strands the client without a valid token
	if err := h.refreshTokenRepo.Revoke(req.RefreshToken); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to revoke rotated refresh token")
	}

	c.JSON(http.StatusOK, tokens)
}

// LogoutRequest is the body for POST /api/v1/auth/logout
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	LogoutAll    bool   `json:"logout_all"`
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = LogoutRequest{}
	}

	if req.LogoutAll {
		if err := h.refreshTokenRepo.RevokeAllForUser(userCtx.UserID); err != nil {
			h.logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Failed to revoke all tokens")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "logout_failed",
				Message: "Failed to log out from all devices",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out from all devices"})
		return
	}

	if req.RefreshToken != "" {
		if err := h.refreshTokenRepo.Revoke(req.RefreshToken); err != nil {
			// Already-revoked tokens are fine for logout
			h.logger.WithError(err).WithField("user_id", userCtx.UserID).Info("Logout token revoke skipped")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// issueTokens generates an access/refresh pair and stores the refresh
// token with device information
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.Utilizador) (*models.TokenPair, error) {
	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, user.Nome, user.Roles())
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	userAgent := utils.GetUserAgent(c)
	device := utils.ParseUserAgent(userAgent)
	expiresAt := time.Now().Add(h.jwtService.RefreshTokenExpiry())

	err = h.refreshTokenRepo.Store(
		user.ID,
		refreshToken,
		device.DeviceType,
		device.OS,
		utils.GetRealIP(c),
		userAgent,
		expiresAt,
	)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.jwtService.AccessTokenExpiry().Seconds()),
	}, nil
}
