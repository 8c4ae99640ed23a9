package models

import (
	"fmt"
	"time"
)

// Avaliacao represents a review left by a guest after a terminated stay
type Avaliacao struct {
	ID           int64      `json:"id" db:"id"`
	CasaID       int64      `json:"casa_id" db:"casa_id"`
	UtilizadorID int64      `json:"utilizador_id" db:"utilizador_id"`
	Nota         int        `json:"nota" db:"nota"`
	Comentario   NullString `json:"comentario,omitempty" db:"comentario"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// AvaliacaoComAutor is a review joined with the reviewer's display name
type AvaliacaoComAutor struct {
	Avaliacao
	UtilizadorNome string `json:"utilizador_nome" db:"utilizador_nome"`
}

// AvaliacaoRequest is the body for creating a review
type AvaliacaoRequest struct {
	CasaID     int64  `json:"casa_id"`
	Nota       int    `json:"nota"`
	Comentario string `json:"comentario"`
}

// Validate checks the review fields
func (r *AvaliacaoRequest) Validate() error {
	if r.CasaID <= 0 {
		return fmt.Errorf("casa_id is required")
	}
	return validateNota(r.Nota)
}

// AvaliacaoUpdateRequest is the body for editing a review
type AvaliacaoUpdateRequest struct {
	Nota       int    `json:"nota"`
	Comentario string `json:"comentario"`
}

// Validate checks the review fields
func (r *AvaliacaoUpdateRequest) Validate() error {
	return validateNota(r.Nota)
}

func validateNota(nota int) error {
	if nota < 0 || nota > 5 {
		return fmt.Errorf("nota must be between 0 and 5")
	}
	return nil
}
