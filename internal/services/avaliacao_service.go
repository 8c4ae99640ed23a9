package services

import (
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/sirupsen/logrus"
)

// AvaliacaoService handles reviews and the eligibility gate
type AvaliacaoService struct {
	avaliacaoRepo *database.AvaliacaoRepository
	reservaRepo   *database.ReservaRepository
	casaRepo      *database.CasaRepository
	logger        *logrus.Logger
}

// NewAvaliacaoService creates a new AvaliacaoService
func NewAvaliacaoService(
	avaliacaoRepo *database.AvaliacaoRepository,
	reservaRepo *database.ReservaRepository,
	casaRepo *database.CasaRepository,
	logger *logrus.Logger,
) *AvaliacaoService {
	return &AvaliacaoService{
		avaliacaoRepo: avaliacaoRepo,
		reservaRepo:   reservaRepo,
		casaRepo:      casaRepo,
		logger:        logger,
	}
}

// Create registers a review. Only guests who completed a stay at the
// lodging may review it, and only once.
func (s *AvaliacaoService) Create(userID int64, req *models.AvaliacaoRequest) (*models.Avaliacao, error) {
	if err := req.Validate(); err != nil {
		return nil, validationf("%s", err.Error())
	}

	casa, err := s.casaRepo.GetByID(req.CasaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get casa: %w", err)
	}
	if casa == nil {
		return nil, notFoundf("casa not found")
	}

	eligible, err := s.reservaRepo.HasTerminatedStay(userID, req.CasaID, models.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to check stay: %w", err)
	}
	if !eligible {
		return nil, validationf("reviews require a completed stay at this casa")
	}

	existing, err := s.avaliacaoRepo.GetByCasaAndUser(req.CasaID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing avaliacao: %w", err)
	}
	if existing != nil {
		return nil, conflictf("you already reviewed this casa")
	}

	avaliacao := &models.Avaliacao{
		CasaID:       req.CasaID,
		UtilizadorID: userID,
		Nota:         req.Nota,
		Comentario:   models.NewNullString(req.Comentario),
	}

	if err := s.avaliacaoRepo.Create(avaliacao); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"avaliacao_id": avaliacao.ID,
		"casa_id":      avaliacao.CasaID,
		"user_id":      userID,
	}).Info("Avaliacao created")

	return avaliacao, nil
}

// Update edits the user's own review
func (s *AvaliacaoService) Update(userID, avaliacaoID int64, req *models.AvaliacaoUpdateRequest) (*models.Avaliacao, error) {
	if err := req.Validate(); err != nil {
		return nil, validationf("%s", err.Error())
	}

	avaliacao, err := s.avaliacaoRepo.GetByID(avaliacaoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get avaliacao: %w", err)
	}
	if avaliacao == nil {
		return nil, notFoundf("avaliacao not found")
	}
	if avaliacao.UtilizadorID != userID {
		return nil, forbiddenf("avaliacao belongs to another user")
	}

	avaliacao.Nota = req.Nota
	avaliacao.Comentario = models.NewNullString(req.Comentario)

	if err := s.avaliacaoRepo.Update(avaliacao); err != nil {
		return nil, err
	}

	return avaliacao, nil
}

// Delete removes the user's own review. Support staff may remove any.
func (s *AvaliacaoService) Delete(userID int64, isSupport bool, avaliacaoID int64) error {
	avaliacao, err := s.avaliacaoRepo.GetByID(avaliacaoID)
	if err != nil {
		return fmt.Errorf("failed to get avaliacao: %w", err)
	}
	if avaliacao == nil {
		return notFoundf("avaliacao not found")
	}
	if avaliacao.UtilizadorID != userID && !isSupport {
		return forbiddenf("avaliacao belongs to another user")
	}

	rowsAffected, err := s.avaliacaoRepo.Delete(avaliacaoID)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFoundf("avaliacao not found")
	}

	return nil
}

// ListByCasa returns a lodging's reviews with the reviewer names
func (s *AvaliacaoService) ListByCasa(casaID int64) ([]models.AvaliacaoComAutor, error) {
	casa, err := s.casaRepo.GetByID(casaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get casa: %w", err)
	}
	if casa == nil {
		return nil, notFoundf("casa not found")
	}
	return s.avaliacaoRepo.ListByCasa(casaID)
}
