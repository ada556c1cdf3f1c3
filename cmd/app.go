package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docintel/internal/classify"
	"github.com/sells-group/docintel/internal/config"
	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/internal/ocr"
	"github.com/sells-group/docintel/internal/oracle"
	"github.com/sells-group/docintel/internal/pipeline"
	"github.com/sells-group/docintel/internal/resilience"
	"github.com/sells-group/docintel/internal/schema"
	"github.com/sells-group/docintel/internal/store"
	anthropicpkg "github.com/sells-group/docintel/pkg/anthropic"
)

// ErrEmptyText is returned when a document yields no text to resolve.
var ErrEmptyText = eris.New("document has no extractable text")

// app holds the initialized clients and the resolver shared by the
// extract and serve commands.
type app struct {
	Resolver   *pipeline.Resolver
	Classifier classify.Classifier
	OCR        ocr.Extractor
	Store      store.Store // may be nil
	Resolve    config.ResolveConfig
}

// Close releases resources held by the app.
func (a *app) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

// initApp validates cfg for mode and wires the oracle, classifier, OCR and
// optional store. Callers should defer a.Close().
func initApp(ctx context.Context, c *config.Config, mode string) (*app, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	registry := schema.New()
	if c.Resolve.SchemaFile != "" {
		r, err := schema.LoadFile(c.Resolve.SchemaFile)
		if err != nil {
			return nil, eris.Wrap(err, "load schema file")
		}
		registry = r
	}

	client := anthropicpkg.NewClient(c.Anthropic.Key, c.Anthropic.BaseURL)

	answerer := oracle.NewLimited(
		oracle.NewAnthropic(client, oracle.AnthropicConfig{
			Model:           c.Oracle.Model,
			MaxTokens:       c.Oracle.MaxTokens,
			Temperature:     c.Oracle.Temperature,
			MaxContextChars: c.Oracle.MaxContextChars,
		}),
		oracle.LimitConfig{
			MaxConcurrency:    c.Oracle.MaxConcurrency,
			RequestsPerSecond: c.Oracle.RequestsPerSecond,
			Burst:             c.Oracle.Burst,
			Timeout:           c.Oracle.Timeout(),
			Breaker: resilience.BreakerConfig{
				Name:     "oracle",
				Failures: c.Oracle.BreakerFailures,
				Cooldown: c.Oracle.BreakerReset(),
			},
		},
	)

	var classifier classify.Classifier = classify.NewKeyword(c.Classify.SampleChars)
	if c.Classify.Provider == "anthropic" {
		classifier = classify.WithFallback(
			classify.NewAnthropic(client, c.Classify.Model, c.Classify.SampleChars),
			classifier,
		)
	}

	extractor, err := ocr.NewExtractor(c.OCR)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	zap.L().Debug("app initialized",
		zap.String("mode", mode),
		zap.String("oracle_model", c.Oracle.Model),
		zap.String("classifier", c.Classify.Provider),
		zap.String("ocr", c.OCR.Provider),
		zap.String("store", c.Store.Driver),
	)

	return &app{
		Resolver: pipeline.NewResolver(answerer,
			pipeline.WithRegistry(registry),
			pipeline.WithFieldConcurrency(c.Resolve.FieldConcurrency),
		),
		Classifier: classifier,
		OCR:        extractor,
		Store:      st,
		Resolve:    c.Resolve,
	}, nil
}

// extractRequest is one document's text plus caller overrides.
type extractRequest struct {
	Source  string
	Text    string
	DocType model.DocumentType
	Fields  []model.FieldName
	Runs    int
	Save    bool
}

// extractResult is what extract prints and serve returns.
type extractResult struct {
	ID         string                    `json:"id,omitempty"`
	Source     string                    `json:"source,omitempty"`
	Extraction *model.DocumentExtraction `json:"extraction"`
}

// resolveText classifies the text unless a type was given, resolves it and
// optionally stores the result. A failed save is logged and the result comes
// back without an ID.
func (a *app) resolveText(ctx context.Context, req extractRequest) (*extractResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}

	docType := req.DocType
	if docType == "" {
		dt, err := a.Classifier.Classify(ctx, req.Text)
		if err != nil {
			zap.L().Warn("classify failed, using other",
				zap.String("source", req.Source),
				zap.Error(err),
			)
			dt = model.DocOther
		}
		docType = dt
	}

	runs := req.Runs
	if runs <= 0 {
		runs = a.Resolve.Runs
	}
	ext := a.Resolver.ResolveDocument(ctx, pipeline.Request{
		DocType:       docType,
		Text:          req.Text,
		CustomFields:  req.Fields,
		Runs:          runs,
		QAThreshold:   pipeline.Threshold(a.Resolve.QAThreshold),
		FlagThreshold: pipeline.Threshold(a.Resolve.FlagThreshold),
	})

	res := &extractResult{Source: req.Source, Extraction: ext}
	if req.Save && a.Store != nil {
		id, err := a.Store.SaveExtraction(ctx, store.Record{
			Source:     req.Source,
			DocType:    ext.DocType,
			Extraction: *ext,
		})
		if err != nil {
			zap.L().Error("save extraction failed, returning unsaved result",
				zap.String("source", req.Source),
				zap.Error(err),
			)
			return res, nil
		}
		res.ID = id
	}
	return res, nil
}

// parseFields splits a comma-separated field list, dropping blanks.
func parseFields(s string) []model.FieldName {
	var out []model.FieldName
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, model.FieldName(p))
		}
	}
	return out
}
