package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CalendarOutboxRepository handles database operations for the
// calendar_outbox table
type CalendarOutboxRepository struct {
	db *sqlx.DB
}

// NewCalendarOutboxRepository creates a new CalendarOutboxRepository
func NewCalendarOutboxRepository(db *sqlx.DB) *CalendarOutboxRepository {
	return &CalendarOutboxRepository{db: db}
}

const outboxColumns = `id, reserva_id, action, event_id, summary, description, start_at, end_at,
	attempts, next_attempt_at, status, last_error, created_at, updated_at`

// insertTx writes an entry inside an existing transaction so the intent
// commits atomically with the reservation change it mirrors
func (r *CalendarOutboxRepository) insertTx(tx *sqlx.Tx, entry *models.CalendarOutboxEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.Status = models.CalendarStatusPending
	if entry.NextAttemptAt.IsZero() {
		entry.NextAttemptAt = time.Now()
	}

	query := `
		INSERT INTO calendar_outbox (id, reserva_id, action, event_id, summary, description, start_at, end_at, next_attempt_at, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(
		query,
		entry.ID, entry.ReservaID, entry.Action, entry.EventID.String,
		entry.Summary, entry.Description, entry.StartAt, entry.EndAt,
		entry.NextAttemptAt, entry.Status,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert outbox entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry by id, or nil when none exists
func (r *CalendarOutboxRepository) GetByID(id uuid.UUID) (*models.CalendarOutboxEntry, error) {
	query := `SELECT ` + outboxColumns + ` FROM calendar_outbox WHERE id = $1`

	var entry models.CalendarOutboxEntry
	err := r.db.Get(&entry, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get outbox entry: %w", err)
	}

	return &entry, nil
}

// ListDue retrieves pending entries whose next attempt is due, oldest first
func (r *CalendarOutboxRepository) ListDue(limit int) ([]models.CalendarOutboxEntry, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM calendar_outbox
		WHERE status = 'pending' AND next_attempt_at <= NOW()
		ORDER BY created_at
		LIMIT $1
	`

	var entries []models.CalendarOutboxEntry
	if err := r.db.Select(&entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list due outbox entries: %w", err)
	}

	return entries, nil
}

// MarkDone marks an entry as successfully mirrored
func (r *CalendarOutboxRepository) MarkDone(id uuid.UUID) error {
	_, err := r.db.Exec(`
		UPDATE calendar_outbox
		SET status = 'done', last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry done: %w", err)
	}

	return nil
}

// RecordFailure bumps the attempt counter, stores the error and schedules
// the next attempt; past maxAttempts the entry is parked as failed
func (r *CalendarOutboxRepository) RecordFailure(id uuid.UUID, cause string, nextAttemptAt time.Time, maxAttempts int) error {
	query := `
		UPDATE calendar_outbox
		SET attempts = attempts + 1,
		    last_error = $2,
		    next_attempt_at = $3,
		    status = CASE WHEN attempts + 1 >= $4 THEN 'failed' ELSE 'pending' END,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, id, cause, nextAttemptAt, maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure: %w", err)
	}

	return nil
}

// CountByStatus returns how many entries are in each status
func (r *CalendarOutboxRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM calendar_outbox GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count outbox entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outbox count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// DeleteDone removes done entries older than the cutoff
func (r *CalendarOutboxRepository) DeleteDone(olderThan time.Duration) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM calendar_outbox
		WHERE status = 'done' AND updated_at < $1
	`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to delete done outbox entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
