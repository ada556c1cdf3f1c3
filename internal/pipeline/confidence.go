package pipeline

import (
	"math"

	"github.com/sells-group/docintel/internal/model"
)

// DefaultFlagThreshold marks fields below this confidence for review.
const DefaultFlagThreshold = 0.6

// Flag marks each field whose confidence is strictly below threshold. Values
// and confidences pass through unchanged.
func Flag(fields []model.ResolvedField, threshold float64) []model.FlaggedField {
	out := make([]model.FlaggedField, len(fields))
	for i, f := range fields {
		out[i] = model.FlaggedField{ResolvedField: f, Flag: f.Confidence < threshold}
	}
	return out
}

// Overall returns the mean field confidence rounded to two places, or 0 for
// an empty set.
func Overall(fields []model.FlaggedField) float64 {
	if len(fields) == 0 {
		return 0
	}
	var sum float64
	for _, f := range fields {
		sum += f.Confidence
	}
	return round2(sum / float64(len(fields)))
}

// round2 rounds half away from zero to two decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
