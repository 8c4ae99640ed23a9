package services

import (
	"fmt"
	"time"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron             *cron.Cron
	calendarSync     *CalendarSyncService
	refreshTokenRepo *database.RefreshTokenRepository
	outboxRepo       *database.CalendarOutboxRepository
	logger           *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(
	calendarSync *CalendarSyncService,
	refreshTokenRepo *database.RefreshTokenRepository,
	outboxRepo *database.CalendarOutboxRepository,
	logger *logrus.Logger,
) *CronService {
	return &CronService{
		cron:             cron.New(cron.WithSeconds()),
		calendarSync:     calendarSync,
		refreshTokenRepo: refreshTokenRepo,
		outboxRepo:       outboxRepo,
		logger:           logger,
	}
}

// Start schedules and starts all cron jobs
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service")

	// Cron format: second minute hour day month weekday
	if s.calendarSync.Enabled() {
		// Drain the calendar outbox every minute
		if _, err := s.cron.AddFunc("0 * * * * *", s.drainOutboxJob); err != nil {
			return fmt.Errorf("failed to schedule outbox drain job: %w", err)
		}
		s.logger.Info("Scheduled: calendar outbox drain (every minute)")

		// Purge done outbox entries weekly on Sunday at 4 AM
		if _, err := s.cron.AddFunc("0 0 4 * * 0", s.cleanupOutboxJob); err != nil {
			return fmt.Errorf("failed to schedule outbox cleanup job: %w", err)
		}
		s.logger.Info("Scheduled: calendar outbox cleanup (Sundays at 4:00 AM)")
	}

	// Remove expired refresh tokens daily at 3 AM
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.cleanupTokensJob); err != nil {
		return fmt.Errorf("failed to schedule token cleanup job: %w", err)
	}
	s.logger.Info("Scheduled: refresh token cleanup (daily at 3:00 AM)")

	s.cron.Start()
	s.logger.Info("Cron service started")

	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) drainOutboxJob() {
	start := time.Now()
	processed, failed := s.calendarSync.DrainDue()
	if processed == 0 && failed == 0 {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"processed": processed,
		"failed":    failed,
		"duration":  time.Since(start).String(),
	}).Info("Calendar outbox drained")
}

func (s *CronService) cleanupOutboxJob() {
	deleted, err := s.outboxRepo.DeleteDone(30 * 24 * time.Hour)
	if err != nil {
		s.logger.WithError(err).Error("Failed to clean up calendar outbox")
		return
	}
	s.logger.WithField("deleted", deleted).Info("Calendar outbox cleaned up")
}

func (s *CronService) cleanupTokensJob() {
	deleted, err := s.refreshTokenRepo.CleanupExpired()
	if err != nil {
		s.logger.WithError(err).Error("Failed to clean up expired refresh tokens")
		return
	}
	s.logger.WithField("deleted", deleted).Info("Expired refresh tokens cleaned up")
}

// RunDrainOutboxNow runs the outbox drain immediately
func (s *CronService) RunDrainOutboxNow() (int, int) {
	s.logger.Info("Running calendar outbox drain now")
	return s.calendarSync.DrainDue()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
