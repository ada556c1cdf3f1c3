package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docintel/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return &PostgresStore{pool: mock}, mock
}

var recordColumns = []string{"id", "source", "doc_type", "result", "created_at"}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS extractions").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MigrateError(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: migrate")
}

func TestPostgres_SaveExtraction(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ext := sampleExtraction(model.DocInvoice, true)

	mock.ExpectExec("INSERT INTO extractions").
		WithArgs("rec-1", "invoice.pdf", "invoice", 0.65, 1, pgxmock.AnyArg(), created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.SaveExtraction(context.Background(), Record{
		ID: "rec-1", Source: "invoice.pdf", Extraction: ext, CreatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveExtractionError(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO extractions").WillReturnError(errors.New("boom"))

	_, err := s.SaveExtraction(context.Background(), Record{Extraction: sampleExtraction(model.DocBill, false)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert extraction")
}

func TestPostgres_GetExtraction(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()

	ext := sampleExtraction(model.DocInvoice, false)
	result, err := json.Marshal(ext)
	require.NoError(t, err)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM extractions WHERE id = \\$1").
		WithArgs("rec-1").
		WillReturnRows(pgxmock.NewRows(recordColumns).
			AddRow("rec-1", "invoice.pdf", "invoice", result, created))

	got, err := s.GetExtraction(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, model.DocInvoice, got.DocType)
	assert.Equal(t, ext.Names(), got.Extraction.Names())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM extractions").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetExtraction(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_ListExtractions(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()

	result, err := json.Marshal(sampleExtraction(model.DocResume, true))
	require.NoError(t, err)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("doc_type = \\$1 AND flagged > 0 ORDER BY created_at DESC, id LIMIT \\$2 OFFSET \\$3").
		WithArgs("resume", 10, 20).
		WillReturnRows(pgxmock.NewRows(recordColumns).
			AddRow("r1", "cv.pdf", "resume", result, created))

	recs, err := s.ListExtractions(context.Background(), Filter{
		DocType: model.DocResume, FlaggedOnly: true, Limit: 10, Offset: 20,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].ID)
	assert.Equal(t, 1, recs[0].Extraction.FlaggedCount())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListDefaultLimit(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()

	mock.ExpectQuery("WHERE true ORDER BY created_at DESC, id LIMIT \\$1$").
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows(recordColumns))

	recs, err := s.ListExtractions(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Close(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectClose()
	require.NoError(t, s.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
