package database

import (
	"database/sql"
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
)

// CasaRepository handles database operations for the casas table
type CasaRepository struct {
	db DB
}

// NewCasaRepository creates a new CasaRepository
func NewCasaRepository(db DB) *CasaRepository {
	return &CasaRepository{db: db}
}

const casaColumns = `id, titulo, descricao, tipo, tipologia, preco, morada, codigo_postal, utilizador_id, created_at, updated_at`

// Create inserts a new lodging
func (r *CasaRepository) Create(casa *models.Casa) error {
	query := `
		INSERT INTO casas (titulo, descricao, tipo, tipologia, preco, morada, codigo_postal, utilizador_id)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		casa.Titulo, casa.Descricao.String, casa.Tipo, casa.Tipologia,
		casa.Preco, casa.Morada, casa.CodigoPostal, casa.UtilizadorID,
	).Scan(&casa.ID, &casa.CreatedAt, &casa.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create casa: %w", err)
	}

	return nil
}

// GetByID retrieves a lodging by id, or nil when none exists
func (r *CasaRepository) GetByID(id int64) (*models.Casa, error) {
	query := `SELECT ` + casaColumns + ` FROM casas WHERE id = $1`

	var casa models.Casa
	err := r.db.Get(&casa, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get casa: %w", err)
	}

	return &casa, nil
}

// List retrieves all lodgings ordered by id
func (r *CasaRepository) List() ([]models.Casa, error) {
	query := `SELECT ` + casaColumns + ` FROM casas ORDER BY id`

	var casas []models.Casa
	if err := r.db.Select(&casas, query); err != nil {
		return nil, fmt.Errorf("failed to list casas: %w", err)
	}

	return casas, nil
}

// ListAddressesExcluding returns the morada of every lodging except the
// given id. Pass 0 to include all lodgings (create path).
func (r *CasaRepository) ListAddressesExcluding(excludeID int64) ([]string, error) {
	query := `SELECT morada FROM casas WHERE id != $1`

	var moradas []string
	if err := r.db.Select(&moradas, query, excludeID); err != nil {
		return nil, fmt.Errorf("failed to list casa addresses: %w", err)
	}

	return moradas, nil
}

// Update replaces the editable fields of a lodging
func (r *CasaRepository) Update(casa *models.Casa) error {
	query := `
		UPDATE casas
		SET titulo = $2, descricao = NULLIF($3, ''), tipo = $4, tipologia = $5,
		    preco = $6, morada = $7, codigo_postal = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		casa.ID, casa.Titulo, casa.Descricao.String, casa.Tipo,
		casa.Tipologia, casa.Preco, casa.Morada, casa.CodigoPostal,
	).Scan(&casa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("casa not found")
		}
		return fmt.Errorf("failed to update casa: %w", err)
	}

	return nil
}

// Delete removes a lodging. Returns the number of rows deleted.
func (r *CasaRepository) Delete(id int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM casas WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete casa: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// CountByOwner counts lodgings created by an account. Used to refuse
// deleting support users that still own listings.
func (r *CasaRepository) CountByOwner(userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM casas WHERE utilizador_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count casas by owner: %w", err)
	}

	return count, nil
}
