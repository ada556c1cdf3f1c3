package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docintel/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSQLite_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.SaveExtraction(ctx, Record{
		Source:     "invoice.pdf",
		Extraction: sampleExtraction(model.DocInvoice, true),
		CreatedAt:  created,
	})
	require.NoError(t, err)

	got, err := s.GetExtraction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "invoice.pdf", got.Source)
	assert.Equal(t, model.DocInvoice, got.DocType)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, []model.FieldName{"invoice_number", "total_amount"}, got.Extraction.Names())
	assert.InDelta(t, 0.65, got.Extraction.OverallConfidence, 1e-9)

	f, ok := got.Extraction.Field("total_amount")
	require.True(t, ok)
	assert.Equal(t, "1200.00", f.Value)
	assert.True(t, f.Flag)
}

func TestSQLite_GetNotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetExtraction(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, err := s.SaveExtraction(ctx, Record{ID: "dup", Extraction: sampleExtraction(model.DocBill, false)})
	require.NoError(t, err)
	_, err = s.SaveExtraction(ctx, Record{ID: "dup", Extraction: sampleExtraction(model.DocBill, false)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: insert extraction")
}

func TestSQLite_ListExtractions(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	seed := []Record{
		{ID: "a", Extraction: sampleExtraction(model.DocInvoice, false), CreatedAt: base},
		{ID: "b", Extraction: sampleExtraction(model.DocInvoice, true), CreatedAt: base.Add(time.Hour)},
		{ID: "c", Extraction: sampleExtraction(model.DocResume, true), CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, rec := range seed {
		_, err := s.SaveExtraction(ctx, rec)
		require.NoError(t, err)
	}

	ids := func(recs []Record) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.ID
		}
		return out
	}

	all, err := s.ListExtractions(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(all))

	invoices, err := s.ListExtractions(ctx, Filter{DocType: model.DocInvoice})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(invoices))

	flagged, err := s.ListExtractions(ctx, Filter{FlaggedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids(flagged))

	page, err := s.ListExtractions(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(page))

	none, err := s.ListExtractions(ctx, Filter{DocType: model.DocLetter})
	require.NoError(t, err)
	assert.Empty(t, none)
}
