package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/docintel/internal/db"
	"github.com/sells-group/docintel/internal/model"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres wraps an open pool. The store owns the pool and closes it.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS extractions (
	id                 TEXT PRIMARY KEY,
	source             TEXT NOT NULL DEFAULT '',
	doc_type           TEXT NOT NULL,
	overall_confidence DOUBLE PRECISION NOT NULL,
	flagged            INTEGER NOT NULL DEFAULT 0,
	result             JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_extractions_doc_type ON extractions(doc_type);
CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveExtraction(ctx context.Context, rec Record) (string, error) {
	rec = prepare(rec)
	result, err := json.Marshal(rec.Extraction)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal extraction")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO extractions (id, source, doc_type, overall_confidence, flagged, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Source, string(rec.DocType), rec.Extraction.OverallConfidence,
		rec.Extraction.FlaggedCount(), result, rec.CreatedAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert extraction")
	}
	return rec.ID, nil
}

func (s *PostgresStore) GetExtraction(ctx context.Context, id string) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, doc_type, result, created_at FROM extractions WHERE id = $1`, id)
	rec, err := scanPgRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get extraction %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get extraction %s", id)
	}
	return rec, nil
}

func (s *PostgresStore) ListExtractions(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, source, doc_type, result, created_at FROM extractions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.DocType != "" {
		query += fmt.Sprintf(` AND doc_type = $%d`, argIdx)
		args = append(args, string(filter.DocType))
		argIdx++
	}
	if filter.FlaggedOnly {
		query += ` AND flagged > 0`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list extractions")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list extractions")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate extractions")
}

func scanPgRecord(row pgx.Row) (*Record, error) {
	var (
		rec     Record
		docType string
		result  []byte
	)
	if err := row.Scan(&rec.ID, &rec.Source, &docType, &result, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.DocType = model.DocumentType(docType)
	if err := json.Unmarshal(result, &rec.Extraction); err != nil {
		return nil, eris.Wrap(err, "unmarshal extraction")
	}
	return &rec, nil
}
