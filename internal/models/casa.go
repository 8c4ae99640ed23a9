package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Lodging categories accepted by the API
const (
	TipoMoradia     = "Moradia"
	TipoApartamento = "Apartamento"
)

var (
	tipologiaRegex = regexp.MustCompile(`(?i)^T[1-4]$`)
	tipoRegex      = regexp.MustCompile(`(?i)^(Moradia|Apartamento)$`)
)

// Casa represents a rural-tourism lodging
type Casa struct {
	ID           int64      `json:"id" db:"id"`
	Titulo       string     `json:"titulo" db:"titulo"`
	Descricao    NullString `json:"descricao,omitempty" db:"descricao"`
	Tipo         string     `json:"tipo" db:"tipo"`
	Tipologia    string     `json:"tipologia" db:"tipologia"`
	Preco        float64    `json:"preco" db:"preco"`
	Morada       string     `json:"morada" db:"morada"`
	CodigoPostal string     `json:"codigo_postal" db:"codigo_postal"`
	UtilizadorID int64      `json:"utilizador_id" db:"utilizador_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// CasaImagem represents an uploaded image attached to a lodging
type CasaImagem struct {
	ID        int64     `json:"id" db:"id"`
	CasaID    int64     `json:"casa_id" db:"casa_id"`
	Path      string    `json:"path" db:"path"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CasaRequest is the body for creating or editing a lodging
type CasaRequest struct {
	Titulo       string  `json:"titulo"`
	Descricao    string  `json:"descricao"`
	Tipo         string  `json:"tipo"`
	Tipologia    string  `json:"tipologia"`
	Preco        float64 `json:"preco"`
	Morada       string  `json:"morada"`
	CodigoPostal string  `json:"codigo_postal"`
}

// Validate checks field formats and canonicalizes tipo/tipologia casing
func (r *CasaRequest) Validate() error {
	r.Titulo = strings.TrimSpace(r.Titulo)
	r.Morada = strings.TrimSpace(r.Morada)
	r.CodigoPostal = strings.TrimSpace(r.CodigoPostal)

	if r.Titulo == "" {
		return fmt.Errorf("titulo is required")
	}
	if r.Morada == "" {
		return fmt.Errorf("morada is required")
	}
	if !tipoRegex.MatchString(r.Tipo) {
		return fmt.Errorf("tipo must be Moradia or Apartamento")
	}
	if !tipologiaRegex.MatchString(r.Tipologia) {
		return fmt.Errorf("tipologia must be T1 to T4")
	}
	if r.Preco <= 0 {
		return fmt.Errorf("preco must be greater than zero")
	}

	// Stored canonical forms: "Moradia"/"Apartamento", "T1".."T4"
	r.Tipologia = strings.ToUpper(r.Tipologia)
	if strings.EqualFold(r.Tipo, TipoMoradia) {
		r.Tipo = TipoMoradia
	} else {
		r.Tipo = TipoApartamento
	}
	return nil
}
