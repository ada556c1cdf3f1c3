package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/docintel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extractions (
	id                 TEXT PRIMARY KEY,
	source             TEXT NOT NULL DEFAULT '',
	doc_type           TEXT NOT NULL,
	overall_confidence REAL NOT NULL,
	flagged            INTEGER NOT NULL DEFAULT 0,
	result             TEXT NOT NULL,
	created_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extractions_doc_type ON extractions(doc_type);
CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveExtraction(ctx context.Context, rec Record) (string, error) {
	rec = prepare(rec)
	result, err := json.Marshal(rec.Extraction)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal extraction")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, source, doc_type, overall_confidence, flagged, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, string(rec.DocType), rec.Extraction.OverallConfidence,
		rec.Extraction.FlaggedCount(), string(result), rec.CreatedAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert extraction")
	}
	return rec.ID, nil
}

func (s *SQLiteStore) GetExtraction(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, doc_type, result, created_at FROM extractions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get extraction %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get extraction %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) ListExtractions(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, source, doc_type, result, created_at FROM extractions WHERE 1=1`
	var args []any
	if filter.DocType != "" {
		query += ` AND doc_type = ?`
		args = append(args, string(filter.DocType))
	}
	if filter.FlaggedOnly {
		query += ` AND flagged > 0`
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, filter.limit(), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list extractions")
	}
	defer rows.Close() //nolint:errcheck

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: list extractions")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate extractions")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var (
		rec     Record
		docType string
		result  string
	)
	if err := row.Scan(&rec.ID, &rec.Source, &docType, &result, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.DocType = model.DocumentType(docType)
	if err := json.Unmarshal([]byte(result), &rec.Extraction); err != nil {
		return nil, eris.Wrap(err, "unmarshal extraction")
	}
	return &rec, nil
}

// prepare fills the ID, timestamp and doc type defaults of rec.
func prepare(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.DocType == "" {
		rec.DocType = rec.Extraction.DocType
	}
	if rec.DocType == "" {
		rec.DocType = model.DocOther
	}
	return rec
}
