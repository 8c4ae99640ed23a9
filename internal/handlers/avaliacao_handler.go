package handlers

import (
	"net/http"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/middleware"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AvaliacaoHandler handles review HTTP requests
type AvaliacaoHandler struct {
	avaliacaoService *services.AvaliacaoService
	logger           *logrus.Logger
}

// NewAvaliacaoHandler creates a new AvaliacaoHandler
func NewAvaliacaoHandler(avaliacaoService *services.AvaliacaoService, logger *logrus.Logger) *AvaliacaoHandler {
	return &AvaliacaoHandler{
		avaliacaoService: avaliacaoService,
		logger:           logger,
	}
}

// Create handles POST /api/v1/avaliacoes
func (h *AvaliacaoHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.AvaliacaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	avaliacao, err := h.avaliacaoService.Create(userCtx.UserID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Avaliacao created successfully",
		"avaliacao": avaliacao,
	})
}

// Update handles PUT /api/v1/avaliacoes/:id
func (h *AvaliacaoHandler) Update(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.AvaliacaoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	avaliacao, err := h.avaliacaoService.Update(userCtx.UserID, id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Avaliacao updated successfully",
		"avaliacao": avaliacao,
	})
}

// Delete handles DELETE /api/v1/avaliacoes/:id
func (h *AvaliacaoHandler) Delete(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.avaliacaoService.Delete(userCtx.UserID, userCtx.IsSupport(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avaliacao deleted"})
}
