package handlers

import (
	"net/http"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/middleware"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CasaHandler handles lodging HTTP requests
type CasaHandler struct {
	casaService      *services.CasaService
	reservaService   *services.ReservaService
	avaliacaoService *services.AvaliacaoService
	logger           *logrus.Logger
}

// NewCasaHandler creates a new CasaHandler
func NewCasaHandler(
	casaService *services.CasaService,
	reservaService *services.ReservaService,
	avaliacaoService *services.AvaliacaoService,
	logger *logrus.Logger,
) *CasaHandler {
	return &CasaHandler{
		casaService:      casaService,
		reservaService:   reservaService,
		avaliacaoService: avaliacaoService,
		logger:           logger,
	}
}

// List handles GET /api/v1/casas
func (h *CasaHandler) List(c *gin.Context) {
	casas, err := h.casaService.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"casas": casas,
		"count": len(casas),
	})
}

// Get handles GET /api/v1/casas/:id
func (h *CasaHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	casa, err := h.casaService.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, casa)
}

// Create handles POST /api/v1/casas (support only)
func (h *CasaHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CasaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	casa, err := h.casaService.Create(userCtx.UserID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Casa created successfully",
		"casa":    casa,
	})
}

// Update handles PUT /api/v1/casas/:id (support only)
func (h *CasaHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.CasaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	casa, err := h.casaService.Update(id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Casa updated successfully",
		"casa":    casa,
	})
}

// Delete handles DELETE /api/v1/casas/:id (support only)
func (h *CasaHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.casaService.Delete(id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Casa deleted"})
}

// ListReservas handles GET /api/v1/casas/:id/reservas
func (h *CasaHandler) ListReservas(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reservas, err := h.reservaService.ListByCasa(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reservas": reservas,
		"count":    len(reservas),
	})
}

// ListAvaliacoes handles GET /api/v1/casas/:id/avaliacoes
func (h *CasaHandler) ListAvaliacoes(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	avaliacoes, err := h.avaliacaoService.ListByCasa(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avaliacoes": avaliacoes,
		"count":      len(avaliacoes),
	})
}
