package handlers

import (
	"net/http"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CodigoPostalHandler handles postal code lookups
type CodigoPostalHandler struct {
	codigoPostalRepo *database.CodigoPostalRepository
	logger           *logrus.Logger
}

// NewCodigoPostalHandler creates a new CodigoPostalHandler
func NewCodigoPostalHandler(codigoPostalRepo *database.CodigoPostalRepository, logger *logrus.Logger) *CodigoPostalHandler {
	return &CodigoPostalHandler{
		codigoPostalRepo: codigoPostalRepo,
		logger:           logger,
	}
}

// Resolve handles GET /api/v1/codigos-postais/:codigo. Returns the
// locality and district the postal code belongs to.
func (h *CodigoPostalHandler) Resolve(c *gin.Context) {
	codigo, err := validator.ValidatePostalCode(c.Param("codigo"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	morada, err := h.codigoPostalRepo.Resolve(codigo)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve codigo postal")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to look up codigo postal",
		})
		return
	}
	if morada == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Codigo postal is not registered",
		})
		return
	}

	c.JSON(http.StatusOK, morada)
}
