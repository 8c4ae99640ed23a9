package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newReservaService wires a full service stack onto one sqlmock
// connection. Calendar sync is disabled (nil gateway) so no outbox
// entries are built.
func newReservaService(t *testing.T) (*ReservaService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	outboxRepo := database.NewCalendarOutboxRepository(sqlxDB)
	reservaRepo := database.NewReservaRepository(sqlxDB)
	calendarSync := NewCalendarSyncService(outboxRepo, reservaRepo, nil, DefaultCalendarSyncConfig(), logger)

	service := NewReservaService(
		reservaRepo,
		database.NewCasaRepository(sqlxDB),
		outboxRepo,
		calendarSync,
		logger,
	)
	return service, mock
}

// futureDate keeps test dates ahead of the UTC clock the service
// validates against
func futureDate(days int) models.DateOnly {
	return models.DateOf(time.Now().UTC().AddDate(0, 0, days))
}

func casaRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "titulo", "descricao", "tipo", "tipologia", "preco",
		"morada", "codigo_postal", "utilizador_id", "created_at", "updated_at",
	}).AddRow(
		id, "Casa do Vale", nil, "Moradia", "T2", 85.0,
		"Rua das Flores 12", "4950-123", int64(2), time.Now(), time.Now(),
	)
}

func activeReservaRows(reservas ...models.Reserva) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "casa_id", "utilizador_id", "data_inicio", "data_fim",
		"estado", "google_event_id", "created_at", "updated_at",
	})
	for _, r := range reservas {
		rows.AddRow(r.ID, r.CasaID, r.UtilizadorID, r.DataInicio.Time, r.DataFim.Time,
			r.Estado, nil, time.Now(), time.Now())
	}
	return rows
}

func TestReservaCreate_Success(t *testing.T) {
	service, mock := newReservaService(t)

	req := &models.ReservaRequest{
		CasaID:     1,
		DataInicio: futureDate(10),
		DataFim:    futureDate(15),
	}

	mock.ExpectQuery("SELECT (.+) FROM casas WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(casaRow(1))
	mock.ExpectQuery("SELECT (.+) FROM reservas").
		WithArgs(int64(1)).
		WillReturnRows(activeReservaRows())
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM casas WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO reservas").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(7), time.Now(), time.Now()))
	mock.ExpectCommit()

	reserva, warning, err := service.Create(10, req)

	require.NoError(t, err)
	assert.Equal(t, int64(7), reserva.ID)
	assert.Equal(t, models.EstadoPendente, reserva.Estado)
	assert.Equal(t, int64(10), reserva.UtilizadorID)
	assert.Equal(t, "", warning)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaCreate_PastStartDate(t *testing.T) {
	service, mock := newReservaService(t)

	req := &models.ReservaRequest{
		CasaID:     1,
		DataInicio: futureDate(-1),
		DataFim:    futureDate(5),
	}

	_, _, err := service.Create(10, req)

	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaCreate_EndNotAfterStart(t *testing.T) {
	service, mock := newReservaService(t)

	req := &models.ReservaRequest{
		CasaID:     1,
		DataInicio: futureDate(5),
		DataFim:    futureDate(5),
	}

	_, _, err := service.Create(10, req)

	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaCreate_CasaNotFound(t *testing.T) {
	service, mock := newReservaService(t)

	req := &models.ReservaRequest{
		CasaID:     99,
		DataInicio: futureDate(10),
		DataFim:    futureDate(15),
	}

	mock.ExpectQuery("SELECT (.+) FROM casas WHERE id = \\$1").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err := service.Create(10, req)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaCreate_OverlapRejected(t *testing.T) {
	service, mock := newReservaService(t)

	req := &models.ReservaRequest{
		CasaID:     1,
		DataInicio: futureDate(10),
		DataFim:    futureDate(15),
	}

	mock.ExpectQuery("SELECT (.+) FROM casas WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(casaRow(1))
	mock.ExpectQuery("SELECT (.+) FROM reservas").
		WithArgs(int64(1)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 3, CasaID: 1, UtilizadorID: 20,
			DataInicio: futureDate(12), DataFim: futureDate(18),
			Estado: models.EstadoPendente,
		}))

	_, _, err := service.Create(10, req)

	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaCreate_BackToBackAllowed(t *testing.T) {
	service, mock := newReservaService(t)

	// New stay starts exactly on the existing checkout date
	req := &models.ReservaRequest{
		CasaID:     1,
		DataInicio: futureDate(15),
		DataFim:    futureDate(20),
	}

	mock.ExpectQuery("SELECT (.+) FROM casas WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(casaRow(1))
	mock.ExpectQuery("SELECT (.+) FROM reservas").
		WithArgs(int64(1)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 3, CasaID: 1, UtilizadorID: 20,
			DataInicio: futureDate(10), DataFim: futureDate(15),
			Estado: models.EstadoPendente,
		}))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM casas WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO reservas").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(8), time.Now(), time.Now()))
	mock.ExpectCommit()

	_, _, err := service.Create(10, req)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaUpdateDates_ExcludesOwnReserva(t *testing.T) {
	service, mock := newReservaService(t)

	req := &models.ReservaUpdateRequest{
		DataInicio: futureDate(11),
		DataFim:    futureDate(16),
	}

	mock.ExpectQuery("SELECT (.+) FROM reservas WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 7, CasaID: 1, UtilizadorID: 10,
			DataInicio: futureDate(10), DataFim: futureDate(15),
			Estado: models.EstadoPendente,
		}))
	mock.ExpectQuery("SELECT (.+) FROM casas WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(casaRow(1))
	// The only active reservation is the one being edited; it must not
	// conflict with itself
	mock.ExpectQuery("SELECT (.+) FROM reservas").
		WithArgs(int64(1)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 7, CasaID: 1, UtilizadorID: 10,
			DataInicio: futureDate(10), DataFim: futureDate(15),
			Estado: models.EstadoPendente,
		}))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM casas WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("UPDATE reservas").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	reserva, warning, err := service.UpdateDates(10, 7, req)

	require.NoError(t, err)
	assert.Equal(t, req.DataInicio, reserva.DataInicio)
	assert.Equal(t, req.DataFim, reserva.DataFim)
	assert.Equal(t, "", warning)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaUpdateDates_WrongOwner(t *testing.T) {
	service, mock := newReservaService(t)

	req := &models.ReservaUpdateRequest{
		DataInicio: futureDate(11),
		DataFim:    futureDate(16),
	}

	mock.ExpectQuery("SELECT (.+) FROM reservas WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 7, CasaID: 1, UtilizadorID: 20,
			DataInicio: futureDate(10), DataFim: futureDate(15),
			Estado: models.EstadoPendente,
		}))

	_, _, err := service.UpdateDates(10, 7, req)

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaUpdateDates_NotPending(t *testing.T) {
	service, mock := newReservaService(t)

	req := &models.ReservaUpdateRequest{
		DataInicio: futureDate(11),
		DataFim:    futureDate(16),
	}

	mock.ExpectQuery("SELECT (.+) FROM reservas WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 7, CasaID: 1, UtilizadorID: 10,
			DataInicio: futureDate(10), DataFim: futureDate(15),
			Estado: models.EstadoTerminada,
		}))

	_, _, err := service.UpdateDates(10, 7, req)

	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaCancel_Success(t *testing.T) {
	service, mock := newReservaService(t)

	mock.ExpectQuery("SELECT (.+) FROM reservas WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 7, CasaID: 1, UtilizadorID: 10,
			DataInicio: futureDate(10), DataFim: futureDate(15),
			Estado: models.EstadoPendente,
		}))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reservas").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	warning, err := service.Cancel(10, 7)

	require.NoError(t, err)
	assert.Equal(t, "", warning)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaCancel_StayAlreadyStarted(t *testing.T) {
	service, mock := newReservaService(t)

	mock.ExpectQuery("SELECT (.+) FROM reservas WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 7, CasaID: 1, UtilizadorID: 10,
			DataInicio: futureDate(0), DataFim: futureDate(5),
			Estado: models.EstadoPendente,
		}))

	_, err := service.Cancel(10, 7)

	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaCancel_NotPending(t *testing.T) {
	service, mock := newReservaService(t)

	mock.ExpectQuery("SELECT (.+) FROM reservas WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(activeReservaRows(models.Reserva{
			ID: 7, CasaID: 1, UtilizadorID: 10,
			DataInicio: futureDate(10), DataFim: futureDate(15),
			Estado: models.EstadoCancelada,
		}))

	_, err := service.Cancel(10, 7)

	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservaGetByID_SupportSeesOtherUsers(t *testing.T) {
	service, mock := newReservaService(t)

	rows := func() *sqlmock.Rows {
		return activeReservaRows(models.Reserva{
			ID: 7, CasaID: 1, UtilizadorID: 20,
			DataInicio: futureDate(10), DataFim: futureDate(15),
			Estado: models.EstadoPendente,
		})
	}

	mock.ExpectQuery("SELECT (.+) FROM reservas WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(rows())

	_, err := service.GetByID(10, false, 7)
	assert.ErrorIs(t, err, ErrForbidden)

	mock.ExpectQuery("SELECT (.+) FROM reservas WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(rows())

	reserva, err := service.GetByID(10, true, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), reserva.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTerminateExpired(t *testing.T) {
	service, mock := newReservaService(t)

	mock.ExpectExec("UPDATE reservas").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := service.TerminateExpired()

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
