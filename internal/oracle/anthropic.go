package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/internal/textutil"
	"github.com/sells-group/docintel/pkg/anthropic"
)

const answerSystemPrompt = `You answer questions about a single document produced by OCR.
Reply with one JSON object and nothing else: {"answer": "<text>", "score": <number>}.
"answer" must be copied verbatim from the document, or "" if the document does not contain it.
"score" is your confidence from 0 to 1 that the answer is correct and complete.`

// AnthropicConfig configures the Anthropic-backed oracle.
type AnthropicConfig struct {
	Model     string
	MaxTokens int64
	// Temperature above zero keeps repeated questions independent samples,
	// which the consensus vote relies on.
	Temperature float64
	// MaxContextChars truncates the document text sent with each question.
	// Zero sends it whole.
	MaxContextChars int
}

// Anthropic asks a Claude model to extract answer spans.
type Anthropic struct {
	client anthropic.Client
	cfg    AnthropicConfig
}

// NewAnthropic creates an oracle over client.
func NewAnthropic(client anthropic.Client, cfg AnthropicConfig) *Anthropic {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	return &Anthropic{client: client, cfg: cfg}
}

// Ask sends the question with the document and parses the JSON reply.
func (a *Anthropic) Ask(ctx context.Context, question, text string) (model.RawAnswer, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      answerSystemPrompt,
		Cached:      true,
		Messages:    []anthropic.Message{{Role: "user", Content: a.prompt(question, text)}},
		Temperature: anthropic.Float(a.cfg.Temperature),
	})
	if err != nil {
		return model.RawAnswer{}, eris.Wrap(err, "oracle: ask")
	}

	ans, err := parseAnswer(resp.Text())
	if err != nil {
		return model.RawAnswer{}, err
	}
	zap.L().Debug("oracle: answer",
		zap.String("question", question),
		zap.String("answer", ans.Text),
		zap.Float64("score", ans.Score),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("cache_read_tokens", resp.Usage.CacheReadTokens),
	)
	return ans, nil
}

func (a *Anthropic) prompt(question, text string) string {
	return fmt.Sprintf("<document>\n%s\n</document>\n\nQuestion: %s", textutil.Truncate(text, a.cfg.MaxContextChars), question)
}

type answerJSON struct {
	Answer *string  `json:"answer"`
	Score  *float64 `json:"score"`
}

// parseAnswer decodes the first JSON object in reply. Text around the
// object, such as a code fence, is ignored.
func parseAnswer(reply string) (model.RawAnswer, error) {
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return model.RawAnswer{}, eris.Errorf("oracle: no JSON object in reply %q", reply)
	}
	var out answerJSON
	if err := json.NewDecoder(bytes.NewReader([]byte(reply[start:]))).Decode(&out); err != nil {
		return model.RawAnswer{}, eris.Wrap(err, "oracle: decode reply")
	}
	if out.Answer == nil || out.Score == nil {
		return model.RawAnswer{}, eris.New("oracle: reply missing answer or score")
	}
	return model.RawAnswer{
		Text:  strings.TrimSpace(*out.Answer),
		Score: ClampScore(*out.Score),
	}, nil
}
