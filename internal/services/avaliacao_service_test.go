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

func newAvaliacaoService(t *testing.T) (*AvaliacaoService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	service := NewAvaliacaoService(
		database.NewAvaliacaoRepository(sqlxDB),
		database.NewReservaRepository(sqlxDB),
		database.NewCasaRepository(sqlxDB),
		logger,
	)
	return service, mock
}

func avaliacaoRows(id, casaID, userID int64, nota int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "casa_id", "utilizador_id", "nota", "comentario", "created_at", "updated_at",
	}).AddRow(id, casaID, userID, nota, nil, time.Now(), time.Now())
}

func expectCasaExists(mock sqlmock.Sqlmock, casaID int64) {
	mock.ExpectQuery("SELECT (.+) FROM casas WHERE id = \\$1").
		WithArgs(casaID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "titulo", "descricao", "tipo", "tipologia", "preco",
			"morada", "codigo_postal", "utilizador_id", "created_at", "updated_at",
		}).AddRow(
			casaID, "Casa do Vale", nil, "Moradia", "T2", 85.0,
			"Rua das Flores 12", "4950-123", int64(2), time.Now(), time.Now(),
		))
}

func TestAvaliacaoCreate_Success(t *testing.T) {
	service, mock := newAvaliacaoService(t)

	expectCasaExists(mock, 1)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(10), int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT (.+) FROM avaliacoes WHERE casa_id = \\$1 AND utilizador_id = \\$2").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO avaliacoes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(3), time.Now(), time.Now()))

	avaliacao, err := service.Create(10, &models.AvaliacaoRequest{
		CasaID:     1,
		Nota:       4,
		Comentario: "Estadia excelente",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), avaliacao.ID)
	assert.Equal(t, 4, avaliacao.Nota)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvaliacaoCreate_NotaOutOfRange(t *testing.T) {
	service, mock := newAvaliacaoService(t)

	for _, nota := range []int{-1, 6} {
		_, err := service.Create(10, &models.AvaliacaoRequest{CasaID: 1, Nota: nota})
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvaliacaoCreate_RequiresCompletedStay(t *testing.T) {
	service, mock := newAvaliacaoService(t)

	expectCasaExists(mock, 1)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(10), int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := service.Create(10, &models.AvaliacaoRequest{CasaID: 1, Nota: 4})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "completed stay")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvaliacaoCreate_DuplicateReview(t *testing.T) {
	service, mock := newAvaliacaoService(t)

	expectCasaExists(mock, 1)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(10), int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT (.+) FROM avaliacoes WHERE casa_id = \\$1 AND utilizador_id = \\$2").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(avaliacaoRows(3, 1, 10, 5))

	_, err := service.Create(10, &models.AvaliacaoRequest{CasaID: 1, Nota: 4})

	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvaliacaoUpdate_WrongOwner(t *testing.T) {
	service, mock := newAvaliacaoService(t)

	mock.ExpectQuery("SELECT (.+) FROM avaliacoes WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(avaliacaoRows(3, 1, 20, 5))

	_, err := service.Update(10, 3, &models.AvaliacaoUpdateRequest{Nota: 2})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvaliacaoDelete_SupportMayRemoveAny(t *testing.T) {
	service, mock := newAvaliacaoService(t)

	mock.ExpectQuery("SELECT (.+) FROM avaliacoes WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(avaliacaoRows(3, 1, 20, 5))
	mock.ExpectExec("DELETE FROM avaliacoes").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.Delete(10, true, 3)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvaliacaoDelete_NonOwnerForbidden(t *testing.T) {
	service, mock := newAvaliacaoService(t)

	mock.ExpectQuery("SELECT (.+) FROM avaliacoes WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(avaliacaoRows(3, 1, 20, 5))

	err := service.Delete(10, false, 3)

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}
