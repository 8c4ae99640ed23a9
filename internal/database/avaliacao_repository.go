package database

import (
	"database/sql"
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
)

// AvaliacaoRepository handles database operations for the avaliacoes table
type AvaliacaoRepository struct {
	db DB
}

// NewAvaliacaoRepository creates a new AvaliacaoRepository
func NewAvaliacaoRepository(db DB) *AvaliacaoRepository {
	return &AvaliacaoRepository{db: db}
}

const avaliacaoColumns = `id, casa_id, utilizador_id, nota, comentario, created_at, updated_at`

// Create inserts a new review
func (r *AvaliacaoRepository) Create(avaliacao *models.Avaliacao) error {
	query := `
		INSERT INTO avaliacoes (casa_id, utilizador_id, nota, comentario)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		avaliacao.CasaID, avaliacao.UtilizadorID, avaliacao.Nota, avaliacao.Comentario.String,
	).Scan(&avaliacao.ID, &avaliacao.CreatedAt, &avaliacao.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create avaliacao: %w", err)
	}

	return nil
}

// GetByID retrieves a review by id, or nil when none exists
func (r *AvaliacaoRepository) GetByID(id int64) (*models.Avaliacao, error) {
	query := `SELECT ` + avaliacaoColumns + ` FROM avaliacoes WHERE id = $1`

	var avaliacao models.Avaliacao
	err := r.db.Get(&avaliacao, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get avaliacao: %w", err)
	}

	return &avaliacao, nil
}

// GetByCasaAndUser retrieves the review a user left on a lodging, or nil
func (r *AvaliacaoRepository) GetByCasaAndUser(casaID, userID int64) (*models.Avaliacao, error) {
	query := `SELECT ` + avaliacaoColumns + ` FROM avaliacoes WHERE casa_id = $1 AND utilizador_id = $2`

	var avaliacao models.Avaliacao
	err := r.db.Get(&avaliacao, query, casaID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get avaliacao for casa and user: %w", err)
	}

	return &avaliacao, nil
}

// ListByCasa retrieves a lodging's reviews joined with the reviewer name,
// newest id first
func (r *AvaliacaoRepository) ListByCasa(casaID int64) ([]models.AvaliacaoComAutor, error) {
	query := `
		SELECT a.id, a.casa_id, a.utilizador_id, a.nota, a.comentario,
		       a.created_at, a.updated_at, u.nome AS utilizador_nome
		FROM avaliacoes a
		JOIN utilizadores u ON u.id = a.utilizador_id
		WHERE a.casa_id = $1
		ORDER BY a.id DESC
	`

	var avaliacoes []models.AvaliacaoComAutor
	if err := r.db.Select(&avaliacoes, query, casaID); err != nil {
		return nil, fmt.Errorf("failed to list avaliacoes for casa: %w", err)
	}

	return avaliacoes, nil
}

// Update replaces a review's rating and comment
func (r *AvaliacaoRepository) Update(avaliacao *models.Avaliacao) error {
	query := `
		UPDATE avaliacoes
		SET nota = $2, comentario = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(query, avaliacao.ID, avaliacao.Nota, avaliacao.Comentario.String).Scan(&avaliacao.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("avaliacao not found")
		}
		return fmt.Errorf("failed to update avaliacao: %w", err)
	}

	return nil
}

// Delete removes a review. Returns the number of rows deleted.
func (r *AvaliacaoRepository) Delete(id int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM avaliacoes WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete avaliacao: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
