package handlers

import (
	"net/http"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/middleware"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReservaHandler handles reservation HTTP requests
type ReservaHandler struct {
	reservaService *services.ReservaService
	logger         *logrus.Logger
}

// NewReservaHandler creates a new ReservaHandler
func NewReservaHandler(reservaService *services.ReservaService, logger *logrus.Logger) *ReservaHandler {
	return &ReservaHandler{
		reservaService: reservaService,
		logger:         logger,
	}
}

// Create handles POST /api/v1/reservas
func (h *ReservaHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.ReservaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	reserva, warning, err := h.reservaService.Create(userCtx.UserID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body := gin.H{
		"message": "Reserva created successfully",
		"reserva": reserva,
	}
	if warning != "" {
		body["warning"] = warning
	}
	c.JSON(http.StatusCreated, body)
}

// UpdateDates handles PUT /api/v1/reservas/:id
func (h *ReservaHandler) UpdateDates(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.ReservaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	reserva, warning, err := h.reservaService.UpdateDates(userCtx.UserID, id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body := gin.H{
		"message": "Reserva updated successfully",
		"reserva": reserva,
	}
	if warning != "" {
		body["warning"] = warning
	}
	c.JSON(http.StatusOK, body)
}

// Cancel handles POST /api/v1/reservas/:id/cancelar
func (h *ReservaHandler) Cancel(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	warning, err := h.reservaService.Cancel(userCtx.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body := gin.H{"message": "Reserva cancelled"}
	if warning != "" {
		body["warning"] = warning
	}
	c.JSON(http.StatusOK, body)
}

// Get handles GET /api/v1/reservas/:id
func (h *ReservaHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reserva, err := h.reservaService.GetByID(userCtx.UserID, userCtx.IsSupport(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reserva)
}

// ListMine handles GET /api/v1/reservas/minhas
func (h *ReservaHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	reservas, err := h.reservaService.ListMine(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reservas": reservas,
		"count":    len(reservas),
	})
}

// TerminateExpired handles POST /api/v1/reservas/terminar-expiradas.
// Any caller may trigger it; the update itself is idempotent.
func (h *ReservaHandler) TerminateExpired(c *gin.Context) {
	count, err := h.reservaService.TerminateExpired()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Expired reservas terminated",
		"terminated": count,
	})
}
