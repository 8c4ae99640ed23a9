package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Reservation states. Pendente is the only non-terminal state.
const (
	EstadoPendente  = "Pendente"
	EstadoTerminada = "Terminada"
	EstadoCancelada = "Cancelada"
)

const dateLayout = "2006-01-02"

// DateOnly is a calendar date without a time component. It marshals as
// "YYYY-MM-DD" and maps onto PostgreSQL date columns. The wall-clock time
// of the embedded value is always midnight UTC.
type DateOnly struct {
	time.Time
}

// NewDateOnly builds a DateOnly from year, month and day
func NewDateOnly(year int, month time.Month, day int) DateOnly {
	return DateOnly{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date in UTC
func DateOf(t time.Time) DateOnly {
	t = t.UTC()
	return NewDateOnly(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar date in UTC
func Today() DateOnly {
	return DateOf(time.Now())
}

// ParseDateOnly parses a "YYYY-MM-DD" string
func ParseDateOnly(s string) (DateOnly, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateOnly{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateOnly{Time: t.UTC()}, nil
}

// MarshalJSON implements json.Marshaler
func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *DateOnly) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return fmt.Errorf("date is required")
	}
	parsed, err := ParseDateOnly(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner
func (d *DateOnly) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		parsed, err := ParseDateOnly(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDateOnly(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DateOnly", value)
	}
}

// Value implements driver.Valuer
func (d DateOnly) Value() (driver.Value, error) {
	return d.Format(dateLayout), nil
}

// Before reports whether d is strictly before other
func (d DateOnly) Before(other DateOnly) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other
func (d DateOnly) After(other DateOnly) bool {
	return d.Time.After(other.Time)
}

// Reserva represents a stay booking for a lodging
type Reserva struct {
	ID            int64      `json:"id" db:"id"`
	CasaID        int64      `json:"casa_id" db:"casa_id"`
	UtilizadorID  int64      `json:"utilizador_id" db:"utilizador_id"`
	DataInicio    DateOnly   `json:"data_inicio" db:"data_inicio"`
	DataFim       DateOnly   `json:"data_fim" db:"data_fim"`
	Estado        string     `json:"estado" db:"estado"`
	GoogleEventID NullString `json:"google_event_id,omitempty" db:"google_event_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ReservaRequest is the body for creating a reservation
type ReservaRequest struct {
	CasaID     int64    `json:"casa_id"`
	DataInicio DateOnly `json:"data_inicio"`
	DataFim    DateOnly `json:"data_fim"`
}

// Validate checks dates against the reference date (today, UTC)
func (r *ReservaRequest) Validate(today DateOnly) error {
	if r.CasaID <= 0 {
		return fmt.Errorf("casa_id is required")
	}
	return validateDates(r.DataInicio, r.DataFim, today)
}

// ReservaUpdateRequest is the body for editing a reservation's dates
type ReservaUpdateRequest struct {
	DataInicio DateOnly `json:"data_inicio"`
	DataFim    DateOnly `json:"data_fim"`
}

// Validate checks dates against the reference date (today, UTC)
func (r *ReservaUpdateRequest) Validate(today DateOnly) error {
	return validateDates(r.DataInicio, r.DataFim, today)
}

func validateDates(inicio, fim, today DateOnly) error {
	if inicio.Before(today) {
		return fmt.Errorf("data_inicio cannot be in the past")
	}
	if !fim.After(inicio) {
		return fmt.Errorf("data_fim must be after data_inicio")
	}
	return nil
}

// ReservaDetalhe is a reservation joined with its lodging, plus the
// caller's review of that lodging when one exists
type ReservaDetalhe struct {
	Reserva
	CasaTitulo   string     `json:"casa_titulo" db:"casa_titulo"`
	CasaMorada   string     `json:"casa_morada" db:"casa_morada"`
	AvaliacaoID  *int64     `json:"avaliacao_id,omitempty" db:"avaliacao_id"`
	Nota         *int       `json:"nota,omitempty" db:"nota"`
	Comentario   NullString `json:"comentario,omitempty" db:"comentario"`
}
