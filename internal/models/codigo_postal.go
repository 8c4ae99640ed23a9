package models

// Distrito is a top-level administrative district
type Distrito struct {
	ID   int64  `json:"id" db:"id"`
	Nome string `json:"nome" db:"nome"`
}

// Localidade is a locality within a district
type Localidade struct {
	ID         int64  `json:"id" db:"id"`
	Nome       string `json:"nome" db:"nome"`
	DistritoID int64  `json:"distrito_id" db:"distrito_id"`
}

// CodigoPostal maps a postal code to its locality
type CodigoPostal struct {
	Codigo       string `json:"codigo" db:"codigo"`
	LocalidadeID int64  `json:"localidade_id" db:"localidade_id"`
}

// MoradaCompleta is a resolved postal code with locality and district names
type MoradaCompleta struct {
	Codigo     string `json:"codigo" db:"codigo"`
	Localidade string `json:"localidade" db:"localidade"`
	Distrito   string `json:"distrito" db:"distrito"`
}
