package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/internal/oracle"
	"github.com/sells-group/docintel/internal/schema"
)

// defaultFieldConcurrency bounds how many fields of one document resolve at once.
const defaultFieldConcurrency = 4

// Request describes one document to resolve. Runs <= 0 takes DefaultRuns.
// A nil QAThreshold or FlagThreshold takes DefaultQAThreshold or
// DefaultFlagThreshold; zero is a valid threshold.
type Request struct {
	DocType model.DocumentType
	// Text is the OCR output. Callers reject empty or whitespace-only text
	// before resolving.
	Text string
	// CustomFields, when non-empty, replaces the schema's field list.
	CustomFields  []model.FieldName
	Runs          int
	QAThreshold   *float64
	FlagThreshold *float64
}

// Threshold returns a pointer to v for Request thresholds.
func Threshold(v float64) *float64 { return &v }

// params is a Request with defaults applied.
type params struct {
	runs          int
	qaThreshold   float64
	flagThreshold float64
}

func (r Request) params() params {
	p := params{
		runs:          r.Runs,
		qaThreshold:   DefaultQAThreshold,
		flagThreshold: DefaultFlagThreshold,
	}
	if p.runs <= 0 {
		p.runs = DefaultRuns
	}
	if r.QAThreshold != nil {
		p.qaThreshold = *r.QAThreshold
	}
	if r.FlagThreshold != nil {
		p.flagThreshold = *r.FlagThreshold
	}
	return p
}

// Resolver turns document text into a DocumentExtraction.
type Resolver struct {
	registry         *schema.Registry
	consensus        *ConsensusResolver
	fieldConcurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRegistry replaces the built-in schema registry.
func WithRegistry(r *schema.Registry) Option {
	return func(res *Resolver) {
		if r != nil {
			res.registry = r
		}
	}
}

// WithFieldConcurrency bounds how many fields resolve in parallel.
func WithFieldConcurrency(n int) Option {
	return func(res *Resolver) {
		if n > 0 {
			res.fieldConcurrency = n
		}
	}
}

// WithRunConcurrency bounds in-flight oracle runs per field.
func WithRunConcurrency(n int) Option {
	return func(res *Resolver) {
		res.consensus = NewConsensusResolver(res.consensus.oracle, n)
	}
}

// NewResolver creates a Resolver consulting o.
func NewResolver(o oracle.Oracle, opts ...Option) *Resolver {
	r := &Resolver{
		registry:         schema.New(),
		consensus:        NewConsensusResolver(o, 0),
		fieldConcurrency: defaultFieldConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the schema registry in use.
func (r *Resolver) Registry() *schema.Registry {
	return r.registry
}

// ResolveDocument resolves every field of the document and returns the
// finished extraction. It never fails: oracle trouble shows up as low,
// flagged confidence instead.
func (r *Resolver) ResolveDocument(ctx context.Context, req Request) *model.DocumentExtraction {
	start := time.Now()
	p := req.params()
	docType := model.ParseDocumentType(string(req.DocType))

	var specs []model.FieldSpec
	if len(req.CustomFields) > 0 {
		specs = r.registry.Specs(req.CustomFields)
	} else {
		specs = r.registry.SchemaFor(docType)
	}

	resolved := make([]model.ResolvedField, len(specs))
	var escalated int
	escalations := make([]bool, len(specs))

	var g errgroup.Group
	g.SetLimit(r.fieldConcurrency)
	for i, spec := range specs {
		g.Go(func() error {
			resolved[i], escalations[i] = r.resolveField(ctx, spec, req.Text, p)
			return nil
		})
	}
	_ = g.Wait()

	for _, e := range escalations {
		if e {
			escalated++
		}
	}

	flagged := Flag(Validate(resolved), p.flagThreshold)
	out := &model.DocumentExtraction{
		DocType:           docType,
		Fields:            flagged,
		OverallConfidence: Overall(flagged),
	}

	zap.L().Info("resolve: document complete",
		zap.String("doc_type", string(docType)),
		zap.Int("fields", len(out.Fields)),
		zap.Int("flagged", out.FlaggedCount()),
		zap.Int("escalated", escalated),
		zap.Float64("overall_confidence", out.OverallConfidence),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

func (r *Resolver) resolveField(ctx context.Context, spec model.FieldSpec, text string, p params) (model.ResolvedField, bool) {
	c := r.consensus.Resolve(ctx, spec, text, p.runs, p.qaThreshold)

	value := c.Value
	if canon := Canonicalize(spec.Name, c.Value); canon != "" {
		value = canon
	}
	return model.ResolvedField{
		Name:       spec.Name,
		Value:      value,
		Confidence: round2(c.Confidence),
	}, c.Escalated
}
