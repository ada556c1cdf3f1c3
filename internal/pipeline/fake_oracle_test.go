package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/docintel/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var errOracle = errors.New("oracle unavailable")

// reply is one scripted oracle outcome.
type reply struct {
	text  string
	score float64
	err   error
}

func ok(text string, score float64) reply { return reply{text: text, score: score} }

func fail() reply { return reply{err: errOracle} }

// scriptedOracle replays replies per question in call order. When a script
// runs out the last reply repeats; unknown questions answer empty.
type scriptedOracle struct {
	mu      sync.Mutex
	scripts map[string][]reply
	calls   map[string]int
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{
		scripts: make(map[string][]reply),
		calls:   make(map[string]int),
	}
}

func (s *scriptedOracle) on(question string, replies ...reply) *scriptedOracle {
	s.scripts[question] = replies
	return s
}

func (s *scriptedOracle) Ask(_ context.Context, question, _ string) (model.RawAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	script := s.scripts[question]
	n := s.calls[question]
	s.calls[question] = n + 1
	if len(script) == 0 {
		return model.RawAnswer{}, nil
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	r := script[n]
	if r.err != nil {
		return model.RawAnswer{}, r.err
	}
	return model.RawAnswer{Text: r.text, Score: r.score}, nil
}

func (s *scriptedOracle) callCount(question string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[question]
}
