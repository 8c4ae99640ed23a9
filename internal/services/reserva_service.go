package services

import (
	"errors"
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/sirupsen/logrus"
)

// ReservaService handles the reservation lifecycle
type ReservaService struct {
	reservaRepo  *database.ReservaRepository
	casaRepo     *database.CasaRepository
	outboxRepo   *database.CalendarOutboxRepository
	calendarSync *CalendarSyncService
	logger       *logrus.Logger
}

// NewReservaService creates a new ReservaService
func NewReservaService(
	reservaRepo *database.ReservaRepository,
	casaRepo *database.CasaRepository,
	outboxRepo *database.CalendarOutboxRepository,
	calendarSync *CalendarSyncService,
	logger *logrus.Logger,
) *ReservaService {
	return &ReservaService{
		reservaRepo:  reservaRepo,
		casaRepo:     casaRepo,
		outboxRepo:   outboxRepo,
		calendarSync: calendarSync,
		logger:       logger,
	}
}

// Create books a lodging for the authenticated user. The returned
// warning is non-empty when the reservation was saved but the calendar
// mirror is delayed.
func (s *ReservaService) Create(userID int64, req *models.ReservaRequest) (*models.Reserva, string, error) {
	today := models.Today()
	if err := req.Validate(today); err != nil {
		return nil, "", validationf("%s", err.Error())
	}

	casa, err := s.casaRepo.GetByID(req.CasaID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get casa: %w", err)
	}
	if casa == nil {
		return nil, "", notFoundf("casa not found")
	}

	// Cheap pre-check before taking the lodging lock. The
	// transactional count inside CreateWithConflictCheck is
	// authoritative; this only rejects the obvious cases early.
	existing, err := s.reservaRepo.ListActiveByCasa(req.CasaID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list reservas: %w", err)
	}
	if Overlaps(req.DataInicio, req.DataFim, existing, 0) {
		return nil, "", conflictf("reservation dates overlap an existing reservation")
	}

	reserva := &models.Reserva{
		CasaID:       req.CasaID,
		UtilizadorID: userID,
		DataInicio:   req.DataInicio,
		DataFim:      req.DataFim,
	}

	entry := s.calendarSync.NewCreateEntry(casa, req.DataInicio, req.DataFim)
	if err := s.reservaRepo.CreateWithConflictCheck(reserva, entry, s.outboxRepo); err != nil {
		switch {
		case errors.Is(err, database.ErrCasaNotFound):
			return nil, "", notFoundf("casa not found")
		case errors.Is(err, database.ErrConflitoDatas):
			return nil, "", conflictf("reservation dates overlap an existing reservation")
		}
		return nil, "", err
	}

	s.logger.WithFields(logrus.Fields{
		"reserva_id": reserva.ID,
		"casa_id":    reserva.CasaID,
		"user_id":    userID,
	}).Info("Reserva created")

	warning := s.calendarSync.ProcessNow(entry)
	return reserva, warning, nil
}

// UpdateDates changes the dates of the user's own pending reservation
func (s *ReservaService) UpdateDates(userID, reservaID int64, req *models.ReservaUpdateRequest) (*models.Reserva, string, error) {
	today := models.Today()
	if err := req.Validate(today); err != nil {
		return nil, "", validationf("%s", err.Error())
	}

	reserva, err := s.reservaRepo.GetByID(reservaID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get reserva: %w", err)
	}
	if reserva == nil {
		return nil, "", notFoundf("reserva not found")
	}
	if reserva.UtilizadorID != userID {
		return nil, "", forbiddenf("reserva belongs to another user")
	}
	if reserva.Estado != models.EstadoPendente {
		return nil, "", validationf("only pending reservas can be changed")
	}

	casa, err := s.casaRepo.GetByID(reserva.CasaID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get casa: %w", err)
	}
	if casa == nil {
		return nil, "", notFoundf("casa not found")
	}

	existing, err := s.reservaRepo.ListActiveByCasa(reserva.CasaID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list reservas: %w", err)
	}
	if Overlaps(req.DataInicio, req.DataFim, existing, reservaID) {
		return nil, "", conflictf("reservation dates overlap an existing reservation")
	}

	entry := s.calendarSync.NewUpdateEntry(casa, reserva, req.DataInicio, req.DataFim)

	reserva.DataInicio = req.DataInicio
	reserva.DataFim = req.DataFim
	if err := s.reservaRepo.UpdateDatesWithConflictCheck(reserva, entry, s.outboxRepo); err != nil {
		switch {
		case errors.Is(err, database.ErrCasaNotFound):
			return nil, "", notFoundf("casa not found")
		case errors.Is(err, database.ErrConflitoDatas):
			return nil, "", conflictf("reservation dates overlap an existing reservation")
		}
		return nil, "", err
	}

	warning := s.calendarSync.ProcessNow(entry)
	return reserva, warning, nil
}

// Cancel moves the user's own pending reservation to Cancelada. Only
// future stays can be cancelled.
func (s *ReservaService) Cancel(userID, reservaID int64) (string, error) {
	reserva, err := s.reservaRepo.GetByID(reservaID)
	if err != nil {
		return "", fmt.Errorf("failed to get reserva: %w", err)
	}
	if reserva == nil {
		return "", notFoundf("reserva not found")
	}
	if reserva.UtilizadorID != userID {
		return "", forbiddenf("reserva belongs to another user")
	}
	if reserva.Estado != models.EstadoPendente {
		return "", validationf("only pending reservas can be cancelled")
	}
	if !reserva.DataInicio.After(models.Today()) {
		return "", validationf("reservas can only be cancelled before the stay starts")
	}

	entry := s.calendarSync.NewDeleteEntry(reserva)
	if err := s.reservaRepo.Cancel(reservaID, entry, s.outboxRepo); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"reserva_id": reservaID,
		"user_id":    userID,
	}).Info("Reserva cancelled")

	warning := s.calendarSync.ProcessNow(entry)
	return warning, nil
}

// TerminateExpired closes every pending reservation whose end date has
// been reached. Idempotent; repeated calls return zero.
func (s *ReservaService) TerminateExpired() (int64, error) {
	count, err := s.reservaRepo.TerminateExpired(models.Today())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.WithField("count", count).Info("Expired reservas terminated")
	}
	return count, nil
}

// GetByID returns one reservation visible to its owner or support staff
func (s *ReservaService) GetByID(userID int64, isSupport bool, reservaID int64) (*models.Reserva, error) {
	reserva, err := s.reservaRepo.GetByID(reservaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reserva: %w", err)
	}
	if reserva == nil {
		return nil, notFoundf("reserva not found")
	}
	if reserva.UtilizadorID != userID && !isSupport {
		return nil, forbiddenf("reserva belongs to another user")
	}
	return reserva, nil
}

// ListByCasa returns all reservations of a lodging
func (s *ReservaService) ListByCasa(casaID int64) ([]models.Reserva, error) {
	casa, err := s.casaRepo.GetByID(casaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get casa: %w", err)
	}
	if casa == nil {
		return nil, notFoundf("casa not found")
	}
	return s.reservaRepo.ListByCasa(casaID)
}

// ListMine returns the user's reservations with lodging and review details
func (s *ReservaService) ListMine(userID int64) ([]models.ReservaDetalhe, error) {
	return s.reservaRepo.ListDetalhadasByUser(userID)
}
