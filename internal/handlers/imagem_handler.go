package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/config"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ImagemHandler handles lodging image uploads
type ImagemHandler struct {
	imagemRepo  *database.CasaImagemRepository
	casaService *services.CasaService
	config      *config.Config
	logger      *logrus.Logger
}

// NewImagemHandler creates a new ImagemHandler
func NewImagemHandler(
	imagemRepo *database.CasaImagemRepository,
	casaService *services.CasaService,
	cfg *config.Config,
	logger *logrus.Logger,
) *ImagemHandler {
	return &ImagemHandler{
		imagemRepo:  imagemRepo,
		casaService: casaService,
		config:      cfg,
		logger:      logger,
	}
}

// Upload handles POST /api/v1/casas/:id/imagens (support only).
// Multipart form with an "imagem" file field.
func (h *ImagemHandler) Upload(c *gin.Context) {
	casaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.casaService.GetByID(casaID); err != nil {
		respondServiceError(c, err)
		return
	}

	file, err := c.FormFile("imagem")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "An 'imagem' file field is required",
		})
		return
	}

	if file.Size > h.config.Storage.MaxUploadMB<<20 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("Image exceeds the %dMB limit", h.config.Storage.MaxUploadMB),
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsupported_type",
			Message: "Only jpg, jpeg, png and webp images are accepted",
		})
		return
	}

	dir := filepath.Join(h.config.Storage.ImageDir, fmt.Sprintf("%d", casaID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.logger.WithError(err).Error("Failed to create image directory")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "upload_failed",
			Message: "Failed to store image",
		})
		return
	}

	filename := uuid.New().String() + ext
	dst := filepath.Join(dir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.logger.WithError(err).Error("Failed to save uploaded image")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "upload_failed",
			Message: "Failed to store image",
		})
		return
	}

	imagem := &models.CasaImagem{
		CasaID: casaID,
		Path:   fmt.Sprintf("%s/%d/%s", h.config.Storage.PublicBaseURL, casaID, filename),
	}
	if err := h.imagemRepo.Create(imagem); err != nil {
		h.logger.WithError(err).Error("Failed to record uploaded image")
		// Best effort: do not leave an orphan file behind
		os.Remove(dst)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "upload_failed",
			Message: "Failed to store image",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"casa_id":   casaID,
		"imagem_id": imagem.ID,
	}).Info("Casa image uploaded")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Image uploaded successfully",
		"imagem":  imagem,
	})
}

// List handles GET /api/v1/casas/:id/imagens
func (h *ImagemHandler) List(c *gin.Context) {
	casaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.casaService.GetByID(casaID); err != nil {
		respondServiceError(c, err)
		return
	}

	imagens, err := h.imagemRepo.ListByCasa(casaID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list casa images")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list images",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imagens": imagens,
		"count":   len(imagens),
	})
}

// Delete handles DELETE /api/v1/imagens/:id (support only)
func (h *ImagemHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	imagem, err := h.imagemRepo.GetByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch image")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete image",
		})
		return
	}
	if imagem == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Image not found",
		})
		return
	}

	if _, err := h.imagemRepo.Delete(id); err != nil {
		h.logger.WithError(err).Error("Failed to delete image record")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete image",
		})
		return
	}

	// Map the public path back onto disk and remove the file
	rel := strings.TrimPrefix(imagem.Path, h.config.Storage.PublicBaseURL+"/")
	if rel != imagem.Path {
		if err := os.Remove(filepath.Join(h.config.Storage.ImageDir, rel)); err != nil && !os.IsNotExist(err) {
			h.logger.WithError(err).Warn("Failed to remove image file")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
}
