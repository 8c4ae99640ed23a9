package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrCasaNotFound indicates the lodging row does not exist
	ErrCasaNotFound = errors.New("casa not found")

	// ErrConflitoDatas indicates the requested dates overlap a
	// non-cancelled reservation of the same lodging
	ErrConflitoDatas = errors.New("reservation dates overlap an existing reservation")
)

// ReservaRepository handles database operations for the reservas table.
// It needs *sqlx.DB rather than the DB interface because the write paths
// run inside transactions that lock the lodging row.
type ReservaRepository struct {
	db *sqlx.DB
}

// NewReservaRepository creates a new ReservaRepository
func NewReservaRepository(db *sqlx.DB) *ReservaRepository {
	return &ReservaRepository{db: db}
}

const reservaColumns = `id, casa_id, utilizador_id, data_inicio, data_fim, estado, google_event_id, created_at, updated_at`

// Ranges are end-exclusive: [s1,e1) overlaps [s2,e2) iff s1 < e2 && s2 < e1.
// Cancelled rows never conflict.
const overlapCountQuery = `
	SELECT COUNT(*)
	FROM reservas
	WHERE casa_id = $1
	  AND estado != 'Cancelada'
	  AND id != $2
	  AND data_inicio < $4
	  AND data_fim > $3
`

// lockCasa takes a row lock on the lodging so that concurrent bookings
// for the same lodging serialize on the conflict check
func lockCasa(tx *sqlx.Tx, casaID int64) error {
	var id int64
	err := tx.QueryRow(`SELECT id FROM casas WHERE id = $1 FOR UPDATE`, casaID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrCasaNotFound
		}
		return fmt.Errorf("failed to lock casa: %w", err)
	}
	return nil
}

// CreateWithConflictCheck inserts a reservation after verifying, under a
// lock on the lodging row, that its dates conflict with no non-cancelled
// reservation. When outboxEntry is non-nil it is written in the same
// transaction with the new reservation id.
func (r *ReservaRepository) CreateWithConflictCheck(reserva *models.Reserva, outboxEntry *models.CalendarOutboxEntry, outboxRepo *CalendarOutboxRepository) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockCasa(tx, reserva.CasaID); err != nil {
		return err
	}

	var conflicts int
	err = tx.QueryRow(overlapCountQuery, reserva.CasaID, 0, reserva.DataInicio, reserva.DataFim).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check reservation conflicts: %w", err)
	}
	if conflicts > 0 {
		return ErrConflitoDatas
	}

	insertQuery := `
		INSERT INTO reservas (casa_id, utilizador_id, data_inicio, data_fim, estado)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	reserva.Estado = models.EstadoPendente
	err = tx.QueryRow(
		insertQuery,
		reserva.CasaID, reserva.UtilizadorID, reserva.DataInicio, reserva.DataFim, reserva.Estado,
	).Scan(&reserva.ID, &reserva.CreatedAt, &reserva.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reserva: %w", err)
	}

	if outboxEntry != nil {
		outboxEntry.ReservaID = reserva.ID
		if err := outboxRepo.insertTx(tx, outboxEntry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateDatesWithConflictCheck changes the dates of a Pendente
// reservation, excluding the reservation itself from the conflict check
func (r *ReservaRepository) UpdateDatesWithConflictCheck(reserva *models.Reserva, outboxEntry *models.CalendarOutboxEntry, outboxRepo *CalendarOutboxRepository) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockCasa(tx, reserva.CasaID); err != nil {
		return err
	}

	var conflicts int
	err = tx.QueryRow(overlapCountQuery, reserva.CasaID, reserva.ID, reserva.DataInicio, reserva.DataFim).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check reservation conflicts: %w", err)
	}
	if conflicts > 0 {
		return ErrConflitoDatas
	}

	updateQuery := `
		UPDATE reservas
		SET data_inicio = $2, data_fim = $3, updated_at = NOW()
		WHERE id = $1 AND estado = 'Pendente'
		RETURNING updated_at
	`

	err = tx.QueryRow(updateQuery, reserva.ID, reserva.DataInicio, reserva.DataFim).Scan(&reserva.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("reserva not found or not pending")
		}
		return fmt.Errorf("failed to update reserva: %w", err)
	}

	if outboxEntry != nil {
		if err := outboxRepo.insertTx(tx, outboxEntry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Cancel moves a Pendente reservation to Cancelada, queueing the
// calendar delete in the same transaction when an event exists
func (r *ReservaRepository) Cancel(reservaID int64, outboxEntry *models.CalendarOutboxEntry, outboxRepo *CalendarOutboxRepository) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE reservas
		SET estado = 'Cancelada', updated_at = NOW()
		WHERE id = $1 AND estado = 'Pendente'
	`, reservaID)
	if err != nil {
		return fmt.Errorf("failed to cancel reserva: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reserva not found or not pending")
	}

	if outboxEntry != nil {
		if err := outboxRepo.insertTx(tx, outboxEntry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a reservation by id, or nil when none exists
func (r *ReservaRepository) GetByID(id int64) (*models.Reserva, error) {
	query := `SELECT ` + reservaColumns + ` FROM reservas WHERE id = $1`

	var reserva models.Reserva
	err := r.db.Get(&reserva, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reserva: %w", err)
	}

	return &reserva, nil
}

// ListByCasa retrieves all reservations of a lodging ordered by start date
func (r *ReservaRepository) ListByCasa(casaID int64) ([]models.Reserva, error) {
	query := `SELECT ` + reservaColumns + ` FROM reservas WHERE casa_id = $1 ORDER BY data_inicio`

	var reservas []models.Reserva
	if err := r.db.Select(&reservas, query, casaID); err != nil {
		return nil, fmt.Errorf("failed to list reservas for casa: %w", err)
	}

	return reservas, nil
}

// ListActiveByCasa retrieves the non-cancelled reservations of a lodging
func (r *ReservaRepository) ListActiveByCasa(casaID int64) ([]models.Reserva, error) {
	query := `
		SELECT ` + reservaColumns + `
		FROM reservas
		WHERE casa_id = $1 AND estado != 'Cancelada'
		ORDER BY data_inicio
	`

	var reservas []models.Reserva
	if err := r.db.Select(&reservas, query, casaID); err != nil {
		return nil, fmt.Errorf("failed to list active reservas for casa: %w", err)
	}

	return reservas, nil
}

// ListDetalhadasByUser retrieves a user's reservations joined with the
// lodging and with the user's review of that lodging when one exists
func (r *ReservaRepository) ListDetalhadasByUser(userID int64) ([]models.ReservaDetalhe, error) {
	query := `
		SELECT r.id, r.casa_id, r.utilizador_id, r.data_inicio, r.data_fim, r.estado,
		       r.google_event_id, r.created_at, r.updated_at,
		       c.titulo AS casa_titulo, c.morada AS casa_morada,
		       a.id AS avaliacao_id, a.nota, a.comentario
		FROM reservas r
		JOIN casas c ON c.id = r.casa_id
		LEFT JOIN avaliacoes a ON a.casa_id = r.casa_id AND a.utilizador_id = r.utilizador_id
		WHERE r.utilizador_id = $1
		ORDER BY r.data_inicio DESC
	`

	var reservas []models.ReservaDetalhe
	if err := r.db.Select(&reservas, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list reservas for user: %w", err)
	}

	return reservas, nil
}

// TerminateExpired moves every Pendente reservation whose end date has
// been reached to Terminada. Returns the number of rows updated.
func (r *ReservaRepository) TerminateExpired(today models.DateOnly) (int64, error) {
	query := `
		UPDATE reservas
		SET estado = 'Terminada', updated_at = NOW()
		WHERE estado = 'Pendente' AND data_fim <= $1
	`

	result, err := r.db.Exec(query, today)
	if err != nil {
		return 0, fmt.Errorf("failed to terminate expired reservas: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// HasTerminatedStay reports whether the user has a non-cancelled
// reservation for the lodging whose end date has been reached
func (r *ReservaRepository) HasTerminatedStay(userID, casaID int64, today models.DateOnly) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservas
			WHERE utilizador_id = $1 AND casa_id = $2
			  AND estado != 'Cancelada' AND data_fim <= $3
		)
	`

	var exists bool
	if err := r.db.QueryRow(query, userID, casaID, today).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check terminated stay: %w", err)
	}

	return exists, nil
}

// SetGoogleEventID stores the external calendar event reference
func (r *ReservaRepository) SetGoogleEventID(reservaID int64, eventID string) error {
	_, err := r.db.Exec(`UPDATE reservas SET google_event_id = $2, updated_at = NOW() WHERE id = $1`, reservaID, eventID)
	if err != nil {
		return fmt.Errorf("failed to set google event id: %w", err)
	}
	return nil
}

// ClearGoogleEventID drops the external calendar event reference
func (r *ReservaRepository) ClearGoogleEventID(reservaID int64) error {
	_, err := r.db.Exec(`UPDATE reservas SET google_event_id = NULL, updated_at = NOW() WHERE id = $1`, reservaID)
	if err != nil {
		return fmt.Errorf("failed to clear google event id: %w", err)
	}
	return nil
}
