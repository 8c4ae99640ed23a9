package services

import (
	"context"
	"fmt"
	"time"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/pkg/calendar"
	"github.com/sirupsen/logrus"
)

// Stays block the calendar from check-in to check-out time (UTC)
const (
	checkInHourUTC  = 14
	checkOutHourUTC = 11
)

// CalendarSyncConfig holds outbox processing configuration
type CalendarSyncConfig struct {
	CallTimeout  time.Duration // Per external call
	MaxAttempts  int           // Attempts before an entry is parked as failed
	InitialDelay time.Duration // First retry delay, doubled per attempt
	BatchSize    int           // Entries per drain run
}

// DefaultCalendarSyncConfig returns default configuration
func DefaultCalendarSyncConfig() CalendarSyncConfig {
	return CalendarSyncConfig{
		CallTimeout:  10 * time.Second,
		MaxAttempts:  8,
		InitialDelay: time.Minute,
		BatchSize:    50,
	}
}

// CalendarSyncService mirrors reservation changes to the external
// calendar through the outbox. The local database is authoritative;
// every external failure is soft and retried by the drain.
type CalendarSyncService struct {
	outboxRepo  *database.CalendarOutboxRepository
	reservaRepo *database.ReservaRepository
	gateway     calendar.Gateway
	config      CalendarSyncConfig
	logger      *logrus.Logger
}

// NewCalendarSyncService creates a new CalendarSyncService. A nil gateway
// disables sync: entries are neither built nor processed.
func NewCalendarSyncService(
	outboxRepo *database.CalendarOutboxRepository,
	reservaRepo *database.ReservaRepository,
	gateway calendar.Gateway,
	config CalendarSyncConfig,
	logger *logrus.Logger,
) *CalendarSyncService {
	return &CalendarSyncService{
		outboxRepo:  outboxRepo,
		reservaRepo: reservaRepo,
		gateway:     gateway,
		config:      config,
		logger:      logger,
	}
}

// Enabled reports whether calendar sync is configured
func (s *CalendarSyncService) Enabled() bool {
	return s != nil && s.gateway != nil
}

func eventTimes(inicio, fim models.DateOnly) (time.Time, time.Time) {
	start := inicio.Time.Add(checkInHourUTC * time.Hour)
	end := fim.Time.Add(checkOutHourUTC * time.Hour)
	return start, end
}

// NewCreateEntry builds an outbox intent for a new reservation. Returns
// nil when sync is disabled.
func (s *CalendarSyncService) NewCreateEntry(casa *models.Casa, inicio, fim models.DateOnly) *models.CalendarOutboxEntry {
	if !s.Enabled() {
		return nil
	}
	start, end := eventTimes(inicio, fim)
	return &models.CalendarOutboxEntry{
		Action:      models.CalendarActionCreate,
		Summary:     fmt.Sprintf("Reserva: %s", casa.Titulo),
		Description: casa.Morada,
		StartAt:     start,
		EndAt:       end,
	}
}

// NewUpdateEntry builds an outbox intent for changed reservation dates
func (s *CalendarSyncService) NewUpdateEntry(casa *models.Casa, reserva *models.Reserva, inicio, fim models.DateOnly) *models.CalendarOutboxEntry {
	if !s.Enabled() {
		return nil
	}
	start, end := eventTimes(inicio, fim)
	return &models.CalendarOutboxEntry{
		ReservaID:   reserva.ID,
		Action:      models.CalendarActionUpdate,
		EventID:     reserva.GoogleEventID,
		Summary:     fmt.Sprintf("Reserva: %s", casa.Titulo),
		Description: casa.Morada,
		StartAt:     start,
		EndAt:       end,
	}
}

// NewDeleteEntry builds an outbox intent for a cancelled reservation.
// Returns nil when sync is disabled or no external event exists yet;
// pending create intents are dropped by the processor once it sees the
// reservation is cancelled.
func (s *CalendarSyncService) NewDeleteEntry(reserva *models.Reserva) *models.CalendarOutboxEntry {
	if !s.Enabled() || !reserva.GoogleEventID.Valid {
		return nil
	}
	start, end := eventTimes(reserva.DataInicio, reserva.DataFim)
	return &models.CalendarOutboxEntry{
		ReservaID: reserva.ID,
		Action:    models.CalendarActionDelete,
		EventID:   reserva.GoogleEventID,
		StartAt:   start,
		EndAt:     end,
	}
}

// ProcessNow attempts an entry immediately after the local commit. On
// failure the entry stays queued for the drain and a warning string is
// returned for the API response. The empty string means no warning.
func (s *CalendarSyncService) ProcessNow(entry *models.CalendarOutboxEntry) string {
	if !s.Enabled() || entry == nil {
		return ""
	}

	if err := s.processEntry(entry); err != nil {
		s.recordFailure(entry, err)
		return "reservation saved, but calendar sync is delayed and will be retried"
	}

	if err := s.outboxRepo.MarkDone(entry.ID); err != nil {
		s.logger.WithError(err).WithField("outbox_id", entry.ID).Error("Failed to mark outbox entry done")
	}
	return ""
}

// DrainDue processes due outbox entries. Returns how many succeeded and
// how many failed this run.
func (s *CalendarSyncService) DrainDue() (int, int) {
	if !s.Enabled() {
		return 0, 0
	}

	entries, err := s.outboxRepo.ListDue(s.config.BatchSize)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list due calendar outbox entries")
		return 0, 0
	}

	processed, failed := 0, 0
	for i := range entries {
		entry := &entries[i]
		if err := s.processEntry(entry); err != nil {
			s.recordFailure(entry, err)
			failed++
			continue
		}
		if err := s.outboxRepo.MarkDone(entry.ID); err != nil {
			s.logger.WithError(err).WithField("outbox_id", entry.ID).Error("Failed to mark outbox entry done")
		}
		processed++
	}

	return processed, failed
}

// processEntry performs the external call for one intent
func (s *CalendarSyncService) processEntry(entry *models.CalendarOutboxEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.CallTimeout)
	defer cancel()

	event := calendar.Event{
		Summary:     entry.Summary,
		Description: entry.Description,
		Start:       entry.StartAt,
		End:         entry.EndAt,
	}

	switch entry.Action {
	case models.CalendarActionCreate:
		reserva, err := s.reservaRepo.GetByID(entry.ReservaID)
		if err != nil {
			return err
		}
		// The reservation may have been cancelled, or mirrored by an
		// earlier attempt, while the intent sat in the queue
		if reserva == nil || reserva.Estado == models.EstadoCancelada || reserva.GoogleEventID.Valid {
			return nil
		}
		eventID, err := s.gateway.CreateEvent(ctx, event)
		if err != nil {
			return err
		}
		return s.reservaRepo.SetGoogleEventID(entry.ReservaID, eventID)

	case models.CalendarActionUpdate:
		eventID := entry.EventID.String
		if eventID == "" {
			// Mirror was never created; create it with the new dates
			reserva, err := s.reservaRepo.GetByID(entry.ReservaID)
			if err != nil {
				return err
			}
			if reserva == nil || reserva.Estado == models.EstadoCancelada {
				return nil
			}
			if reserva.GoogleEventID.Valid {
				eventID = reserva.GoogleEventID.String
			} else {
				created, err := s.gateway.CreateEvent(ctx, event)
				if err != nil {
					return err
				}
				return s.reservaRepo.SetGoogleEventID(entry.ReservaID, created)
			}
		}
		return s.gateway.UpdateEvent(ctx, eventID, event)

	case models.CalendarActionDelete:
		if entry.EventID.String == "" {
			return nil
		}
		if err := s.gateway.DeleteEvent(ctx, entry.EventID.String); err != nil {
			return err
		}
		return s.reservaRepo.ClearGoogleEventID(entry.ReservaID)

	default:
		return fmt.Errorf("unknown outbox action %q", entry.Action)
	}
}

// recordFailure logs and schedules the next attempt with exponential backoff
func (s *CalendarSyncService) recordFailure(entry *models.CalendarOutboxEntry, cause error) {
	delay := s.config.InitialDelay << uint(entry.Attempts)
	if delay > time.Hour {
		delay = time.Hour
	}
	nextAttempt := time.Now().Add(delay)

	s.logger.WithError(cause).WithFields(logrus.Fields{
		"outbox_id":  entry.ID,
		"reserva_id": entry.ReservaID,
		"action":     entry.Action,
		"attempt":    entry.Attempts + 1,
	}).Warn("Calendar sync attempt failed")

	if err := s.outboxRepo.RecordFailure(entry.ID, cause.Error(), nextAttempt, s.config.MaxAttempts); err != nil {
		s.logger.WithError(err).WithField("outbox_id", entry.ID).Error("Failed to record outbox failure")
	}
	entry.Attempts++
}

// Status summarizes outbox state for the ops surface
func (s *CalendarSyncService) Status() (map[string]int, error) {
	if !s.Enabled() {
		return map[string]int{}, nil
	}
	return s.outboxRepo.CountByStatus()
}
