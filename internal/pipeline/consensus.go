package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/internal/oracle"
)

const (
	// DefaultRuns is the number of oracle queries per field.
	DefaultRuns = 3

	// DefaultQAThreshold is the averaged oracle confidence under which
	// email/phone fields escalate to pattern extraction.
	DefaultQAThreshold = 0.35

	// fallbackFloor is the minimum confidence of a pattern-matched value.
	fallbackFloor = 0.5

	// defaultRunConcurrency bounds in-flight oracle calls for one field.
	defaultRunConcurrency = 3
)

// Consensus is the vote outcome for one field.
type Consensus struct {
	Value      string
	Confidence float64
	// Answers holds every raw answer at its call index.
	Answers []model.RawAnswer
	// Escalated is true when the value came from pattern extraction.
	Escalated bool
}

// ConsensusResolver queries the oracle repeatedly for one field and settles
// on a single value by plurality vote.
type ConsensusResolver struct {
	oracle      oracle.Oracle
	concurrency int
}

// NewConsensusResolver creates a resolver over o. concurrency bounds how many
// runs of a single field are in flight; values <= 0 use the default.
func NewConsensusResolver(o oracle.Oracle, concurrency int) *ConsensusResolver {
	if concurrency <= 0 {
		concurrency = defaultRunConcurrency
	}
	return &ConsensusResolver{oracle: o, concurrency: concurrency}
}

// Resolve asks the oracle runs times, picks the most frequent literal answer
// (ties go to the answer seen first in call order) and averages all scores.
// A weak result for an email or phone field escalates to ExtractPattern; a
// match replaces the value and lifts confidence to at least 0.5. Oracle
// failures count as empty zero-score answers and are never returned.
func (c *ConsensusResolver) Resolve(ctx context.Context, spec model.FieldSpec, text string, runs int, qaThreshold float64) Consensus {
	if runs <= 0 {
		runs = 1
	}
	answers := c.collect(ctx, spec, text, runs)

	res := Consensus{
		Value:      plurality(answers),
		Confidence: meanScore(answers),
		Answers:    answers,
	}

	if (res.Value == "" || res.Confidence < qaThreshold) && patternEligible(spec.Name) {
		if m := ExtractPattern(spec.Name, text); m != "" {
			zap.L().Debug("consensus: pattern fallback",
				zap.String("field", string(spec.Name)),
				zap.String("oracle_value", res.Value),
				zap.Float64("oracle_confidence", res.Confidence),
				zap.String("pattern_value", m),
			)
			res.Value = m
			res.Confidence = max(res.Confidence, fallbackFloor)
			res.Escalated = true
		}
	}
	return res
}

// collect issues the runs concurrently. Each answer lands at its call index
// so the vote does not depend on completion order.
func (c *ConsensusResolver) collect(ctx context.Context, spec model.FieldSpec, text string, runs int) []model.RawAnswer {
	answers := make([]model.RawAnswer, runs)

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i := 0; i < runs; i++ {
		g.Go(func() error {
			answers[i] = c.ask(ctx, spec, text, i)
			return nil
		})
	}
	_ = g.Wait() // no run returns an error

	return answers
}

func (c *ConsensusResolver) ask(ctx context.Context, spec model.FieldSpec, text string, run int) (ans model.RawAnswer) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("consensus: oracle panicked",
				zap.String("field", string(spec.Name)),
				zap.Int("run", run),
				zap.String("panic", fmt.Sprint(r)),
			)
			ans = model.RawAnswer{}
		}
	}()

	raw, err := c.oracle.Ask(ctx, spec.Question, text)
	if err != nil {
		zap.L().Debug("consensus: oracle call failed",
			zap.String("field", string(spec.Name)),
			zap.Int("run", run),
			zap.Error(err),
		)
		return model.RawAnswer{}
	}
	return model.RawAnswer{
		Text:  strings.TrimSpace(raw.Text),
		Score: oracle.ClampScore(raw.Score),
	}
}

// plurality returns the most frequent answer text. Among equally frequent
// answers the one that appeared first wins.
func plurality(answers []model.RawAnswer) string {
	counts := make(map[string]int, len(answers))
	for _, a := range answers {
		counts[a.Text]++
	}
	var (
		best      string
		bestCount int
	)
	for _, a := range answers {
		if n := counts[a.Text]; n > bestCount {
			best, bestCount = a.Text, n
		}
	}
	return best
}

// meanScore averages every run's score, including failed runs.
func meanScore(answers []model.RawAnswer) float64 {
	if len(answers) == 0 {
		return 0
	}
	var sum float64
	for _, a := range answers {
		sum += a.Score
	}
	return sum / float64(len(answers))
}
