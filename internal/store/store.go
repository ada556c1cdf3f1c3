// Package store persists finished document extractions.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docintel/internal/config"
	"github.com/sells-group/docintel/internal/db"
	"github.com/sells-group/docintel/internal/model"
)

// ErrNotFound is returned when an extraction ID does not exist.
var ErrNotFound = eris.New("store: extraction not found")

// Record is one stored extraction.
type Record struct {
	ID         string                   `json:"id"`
	Source     string                   `json:"source"`
	DocType    model.DocumentType       `json:"doc_type"`
	Extraction model.DocumentExtraction `json:"extraction"`
	CreatedAt  time.Time                `json:"created_at"`
}

// Filter narrows ListExtractions. Results are newest first.
type Filter struct {
	DocType model.DocumentType `json:"doc_type,omitempty"`
	// FlaggedOnly keeps extractions with at least one flagged field.
	FlaggedOnly bool `json:"flagged_only,omitempty"`
	Limit       int  `json:"limit,omitempty"`
	Offset      int  `json:"offset,omitempty"`
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store defines the persistence interface for extractions.
type Store interface {
	// SaveExtraction stores rec and returns its ID. An empty rec.ID gets a
	// fresh UUID; a zero CreatedAt becomes now.
	SaveExtraction(ctx context.Context, rec Record) (string, error)
	GetExtraction(ctx context.Context, id string) (*Record, error)
	ListExtractions(ctx context.Context, filter Filter) ([]Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for cfg.Driver, migrated and ready. It returns
// nil, nil when no driver is configured.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "docintel.db"
		}
		s, err = NewSQLite(dsn)
	case "postgres":
		var pool db.Pool
		pool, err = db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{})
		if err == nil {
			s = NewPostgres(pool)
		}
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
