package handlers

import (
	"net/http"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler exposes the operations surface (support only)
type AdminHandler struct {
	calendarSync *services.CalendarSyncService
	cronService  *services.CronService
	logger       *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	calendarSync *services.CalendarSyncService,
	cronService *services.CronService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		calendarSync: calendarSync,
		cronService:  cronService,
		logger:       logger,
	}
}

// OutboxStatus handles GET /api/v1/admin/outbox
func (h *AdminHandler) OutboxStatus(c *gin.Context) {
	counts, err := h.calendarSync.Status()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read outbox status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "status_failed",
			Message: "Failed to read outbox status",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled": h.calendarSync.Enabled(),
		"counts":  counts,
	})
}

// DrainOutbox handles POST /api/v1/admin/outbox/drain
func (h *AdminHandler) DrainOutbox(c *gin.Context) {
	if !h.calendarSync.Enabled() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "sync_disabled",
			Message: "Calendar sync is not configured",
		})
		return
	}

	processed, failed := h.cronService.RunDrainOutboxNow()
	c.JSON(http.StatusOK, gin.H{
		"message":   "Outbox drained",
		"processed": processed,
		"failed":    failed,
	})
}

// CronStatus handles GET /api/v1/admin/cron
func (h *AdminHandler) CronStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cronService.GetJobStatus())
}
