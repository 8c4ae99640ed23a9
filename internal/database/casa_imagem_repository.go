package database

import (
	"database/sql"
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
)

// CasaImagemRepository handles database operations for the casa_imagens table
type CasaImagemRepository struct {
	db DB
}

// NewCasaImagemRepository creates a new CasaImagemRepository
func NewCasaImagemRepository(db DB) *CasaImagemRepository {
	return &CasaImagemRepository{db: db}
}

// Create records an uploaded image file for a lodging
func (r *CasaImagemRepository) Create(imagem *models.CasaImagem) error {
	query := `
		INSERT INTO casa_imagens (casa_id, path)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, imagem.CasaID, imagem.Path).Scan(&imagem.ID, &imagem.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create casa imagem: %w", err)
	}

	return nil
}

// GetByID retrieves an image record, or nil when none exists
func (r *CasaImagemRepository) GetByID(id int64) (*models.CasaImagem, error) {
	query := `SELECT id, casa_id, path, created_at FROM casa_imagens WHERE id = $1`

	var imagem models.CasaImagem
	err := r.db.Get(&imagem, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get casa imagem: %w", err)
	}

	return &imagem, nil
}

// ListByCasa retrieves a lodging's image records ordered by id
func (r *CasaImagemRepository) ListByCasa(casaID int64) ([]models.CasaImagem, error) {
	query := `SELECT id, casa_id, path, created_at FROM casa_imagens WHERE casa_id = $1 ORDER BY id`

	var imagens []models.CasaImagem
	if err := r.db.Select(&imagens, query, casaID); err != nil {
		return nil, fmt.Errorf("failed to list casa imagens: %w", err)
	}

	return imagens, nil
}

// Delete removes an image record. Returns the number of rows deleted.
func (r *CasaImagemRepository) Delete(id int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM casa_imagens WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete casa imagem: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
