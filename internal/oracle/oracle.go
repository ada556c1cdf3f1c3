// Package oracle defines the extractive question-answering capability the
// resolution pipeline consults, plus adapters that bound and back it.
package oracle

import (
	"context"

	"github.com/sells-group/docintel/internal/model"
)

// Oracle answers a question against document text with a span and a
// score in [0,1]. Implementations may be slow, may fail, and may return
// different answers for identical input.
type Oracle interface {
	Ask(ctx context.Context, question, text string) (model.RawAnswer, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, question, text string) (model.RawAnswer, error)

// Ask calls f.
func (f Func) Ask(ctx context.Context, question, text string) (model.RawAnswer, error) {
	return f(ctx, question, text)
}

// ClampScore bounds s into [0,1]. NaN becomes 0.
func ClampScore(s float64) float64 {
	switch {
	case s != s:
		return 0
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
