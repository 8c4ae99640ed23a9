package database

import (
	"database/sql"
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
)

// CodigoPostalRepository handles lookups against the postal directory
// tables (codigos_postais, localidades, distritos)
type CodigoPostalRepository struct {
	db DB
}

// NewCodigoPostalRepository creates a new CodigoPostalRepository
func NewCodigoPostalRepository(db DB) *CodigoPostalRepository {
	return &CodigoPostalRepository{db: db}
}

// Exists reports whether the postal code is in the directory
func (r *CodigoPostalRepository) Exists(codigo string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM codigos_postais WHERE codigo = $1)`, codigo).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check postal code: %w", err)
	}

	return exists, nil
}

// Resolve returns the locality and district for a postal code, or nil
// when the code is unknown
func (r *CodigoPostalRepository) Resolve(codigo string) (*models.MoradaCompleta, error) {
	query := `
		SELECT cp.codigo, l.nome AS localidade, d.nome AS distrito
		FROM codigos_postais cp
		JOIN localidades l ON l.id = cp.localidade_id
		JOIN distritos d ON d.id = l.distrito_id
		WHERE cp.codigo = $1
	`

	var morada models.MoradaCompleta
	err := r.db.Get(&morada, query, codigo)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve postal code: %w", err)
	}

	return &morada, nil
}
