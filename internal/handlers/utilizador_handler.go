package handlers

import (
	"net/http"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/config"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/middleware"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UtilizadorHandler handles account profile and administration requests
type UtilizadorHandler struct {
	utilizadorRepo   *database.UtilizadorRepository
	refreshTokenRepo *database.RefreshTokenRepository
	casaRepo         *database.CasaRepository
	config           *config.Config
	logger           *logrus.Logger
}

// NewUtilizadorHandler creates a new UtilizadorHandler
func NewUtilizadorHandler(
	utilizadorRepo *database.UtilizadorRepository,
	refreshTokenRepo *database.RefreshTokenRepository,
	casaRepo *database.CasaRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *UtilizadorHandler {
	return &UtilizadorHandler{
		utilizadorRepo:   utilizadorRepo,
		refreshTokenRepo: refreshTokenRepo,
		casaRepo:         casaRepo,
		config:           cfg,
		logger:           logger,
	}
}

// GetProfile handles GET /api/v1/users/me
func (h *UtilizadorHandler) GetProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.utilizadorRepo.GetByID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "profile_retrieval_failed",
			Message: "Failed to retrieve profile",
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "user_not_found",
			Message: "Account no longer exists",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /api/v1/users/me. Absent fields stay
// unchanged; a password change revokes every refresh token.
func (h *UtilizadorHandler) UpdateProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.UpdateProfileRequest
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

	user, err := h.utilizadorRepo.GetByID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch profile for update")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "profile_update_failed",
			Message: "Failed to update profile",
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "user_not_found",
			Message: "Account no longer exists",
		})
		return
	}

	nome := user.Nome
	email := user.Email
	telemovel := user.Telemovel.String
	if req.Nome != nil {
		nome = *req.Nome
	}
	if req.Email != nil {
		email = *req.Email
	}
	if req.Telemovel != nil {
		telemovel = *req.Telemovel
	}

	if email != user.Email {
		existing, err := h.utilizadorRepo.GetByEmail(email)
		if err != nil {
			h.logger.WithError(err).Error("Failed to check email availability")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "profile_update_failed",
				Message: "Failed to update profile",
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
	}

	updated, err := h.utilizadorRepo.UpdateProfile(userCtx.UserID, nome, email, telemovel)
	if err != nil || updated == nil {
		h.logger.WithError(err).Error("Failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "profile_update_failed",
			Message: "Failed to update profile",
		})
		return
	}

	if req.PalavraPass != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.PalavraPass), h.config.Security.BcryptCost)
		if err != nil {
			h.logger.WithError(err).Error("Failed to hash new password")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "profile_update_failed",
				Message: "Failed to update password",
			})
			return
		}
		if err := h.utilizadorRepo.UpdatePassword(userCtx.UserID, string(hash)); err != nil {
			h.logger.WithError(err).Error("Failed to store new password")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "profile_update_failed",
				Message: "Failed to update password",
			})
			return
		}
		if err := h.refreshTokenRepo.RevokeAllForUser(userCtx.UserID); err != nil {
			h.logger.WithError(err).Warn("Failed to revoke tokens after password change")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

// List handles GET /api/v1/users (support only)
func (h *UtilizadorHandler) List(c *gin.Context) {
	users, err := h.utilizadorRepo.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "user_list_failed",
			Message: "Failed to list accounts",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// Delete handles DELETE /api/v1/users/:id (support only). Accounts that
// still own lodgings cannot be removed.
func (h *UtilizadorHandler) Delete(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if id == userCtx.UserID {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "You cannot delete your own account",
		})
		return
	}

	owned, err := h.casaRepo.CountByOwner(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count owned casas")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "user_delete_failed",
			Message: "Failed to delete account",
		})
		return
	}
	if owned > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "conflict",
			Message: "Account still owns casas and cannot be deleted",
			Code:    "OWNS_CASAS",
		})
		return
	}

	rowsAffected, err := h.utilizadorRepo.Delete(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "user_delete_failed",
			Message: "Failed to delete account",
		})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "user_not_found",
			Message: "Account not found",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"deleted_user_id": id,
		"by_user_id":      userCtx.UserID,
	}).Info("User deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
