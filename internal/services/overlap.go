package services

import (
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
)

// Overlaps reports whether the candidate range [start,end) conflicts with
// any of the existing reservations. Ranges are end-exclusive, so a stay
// may start on another stay's checkout date. Cancelled reservations never
// conflict, and the reservation identified by excludeID is ignored (pass 0
// when creating). Callers must validate end > start beforehand.
func Overlaps(start, end models.DateOnly, existing []models.Reserva, excludeID int64) bool {
	for _, reserva := range existing {
		if reserva.ID == excludeID {
			continue
		}
		if reserva.Estado == models.EstadoCancelada {
			continue
		}
		// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1
		if start.Before(reserva.DataFim) && reserva.DataInicio.Before(end) {
			return true
		}
	}
	return false
}
