package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/pkg/anthropic"
)

// Anthropic asks a Claude model to pick one label for the document.
type Anthropic struct {
	client      anthropic.Client
	model       string
	sampleChars int
}

// NewAnthropic creates an LLM-backed classifier.
func NewAnthropic(client anthropic.Client, modelID string, sampleChars int) *Anthropic {
	return &Anthropic{client: client, model: modelID, sampleChars: sampleChars}
}

func labels() []string {
	types := model.AllDocumentTypes()
	out := make([]string, len(types))
	for i, dt := range types {
		out[i] = dt.Label()
	}
	return out
}

// Classify returns the model's label. Labels outside the known set become
// "other".
func (a *Anthropic) Classify(ctx context.Context, text string) (model.DocumentType, error) {
	prompt := fmt.Sprintf(
		"Classify this document as exactly one of: %s.\nReply with the label only.\n\n<document>\n%s\n</document>",
		strings.Join(labels(), ", "), sample(text, a.sampleChars),
	)
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   16,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return model.DocOther, eris.Wrap(err, "classify: ask model")
	}

	raw := strings.Trim(strings.TrimSpace(resp.Text()), `."'`)
	dt := model.ParseDocumentType(raw)
	zap.L().Debug("classify: model label",
		zap.String("raw", raw),
		zap.String("doc_type", string(dt)),
	)
	return dt, nil
}

// WithFallback returns a classifier that uses fallback whenever primary
// fails, so classification never blocks extraction.
func WithFallback(primary, fallback Classifier) Classifier {
	return &fallbackClassifier{primary: primary, fallback: fallback}
}

type fallbackClassifier struct {
	primary, fallback Classifier
}

func (f *fallbackClassifier) Classify(ctx context.Context, text string) (model.DocumentType, error) {
	dt, err := f.primary.Classify(ctx, text)
	if err == nil {
		return dt, nil
	}
	zap.L().Warn("classify: primary classifier failed, using fallback", zap.Error(err))
	return f.fallback.Classify(ctx, text)
}
