// Package analysis turns an analysis request into generated text: it
// validates the request, renders the prompt for the requested kind and runs
// one generation with that kind's sampling profile.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lox/crimelens/internal/apperr"
	"github.com/lox/crimelens/internal/llm"
	"github.com/lox/crimelens/internal/metrics"
	"github.com/lox/crimelens/internal/prompt"
)

// Generator produces the full text for a rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, p llm.Params) (string, error)
}

// DefaultProfiles returns the sampling profile of every kind.
func DefaultProfiles() map[prompt.Kind]llm.Params {
	spatial := llm.DefaultParams()
	spatial.Temperature = 0.3
	spatial.StripMarkup = true

	general := llm.DefaultParams()
	general.Temperature = 0.3
	general.MaxNewTokens = 512

	return map[prompt.Kind]llm.Params{
		prompt.KindSpatial:    spatial,
		prompt.KindBeatwise:   llm.DefaultParams(),
		prompt.KindPrediction: llm.DefaultParams(),
		prompt.KindDeployment: llm.DefaultParams(),
		prompt.KindGeneral:    general,
	}
}

// Overrides adjusts sampling for a single request. Only the general kind
// honours them; the other kinds always run with their fixed profile.
type Overrides struct {
	Temperature  *float64
	TopP         *float64
	MaxNewTokens *int
}

// Request is one analysis call.
type Request struct {
	Kind         prompt.Kind
	AnalysisText string
	District     string
	Unit         string
	Beat         string
	Overrides    *Overrides
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	gen      Generator
	profiles map[prompt.Kind]llm.Params
	log      *zap.Logger
}

// NewPipeline creates a pipeline. Kinds missing from profiles fall back to
// DefaultProfiles.
func NewPipeline(gen Generator, profiles map[prompt.Kind]llm.Params, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	merged := DefaultProfiles()
	for k, p := range profiles {
		merged[k] = p
	}
	return &Pipeline{gen: gen, profiles: merged, log: log}
}

// Params returns the sampling parameters req will run with.
func (p *Pipeline) Params(req Request) llm.Params {
	params, ok := p.profiles[req.Kind]
	if !ok {
		params = llm.DefaultParams()
	}
	if req.Kind == prompt.KindGeneral && req.Overrides != nil {
		o := req.Overrides
		if o.Temperature != nil {
			params.Temperature = *o.Temperature
		}
		if o.TopP != nil {
			params.TopP = *o.TopP
		}
		if o.MaxNewTokens != nil {
			params.MaxNewTokens = *o.MaxNewTokens
		}
	}
	return params.Normalize()
}

// Prompt validates req and renders its prompt without generating.
func (p *Pipeline) Prompt(req Request) (string, error) {
	if strings.TrimSpace(req.AnalysisText) == "" {
		return "", apperr.ClientInput("analysis_text", "Analysis text is required")
	}
	if _, ok := p.profiles[req.Kind]; !ok {
		return "", fmt.Errorf("unknown analysis kind %q", req.Kind)
	}
	return prompt.Render(req.Kind, req.AnalysisText, prompt.Context{
		District: req.District,
		Unit:     req.Unit,
		Beat:     req.Beat,
	})
}

// Run validates, renders and generates. A blank analysis text fails with a
// ClientInputError before anything is rendered or sent.
func (p *Pipeline) Run(ctx context.Context, req Request) (string, error) {
	kind := string(req.Kind)
	text, err := p.Prompt(req)
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(kind, metrics.OutcomeClientError).Inc()
		return "", err
	}

	start := time.Now()
	out, err := p.gen.Generate(ctx, text, p.Params(req))
	metrics.GenerationLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(kind, metrics.OutcomeUpstream).Inc()
		return "", fmt.Errorf("%s analysis: %w", kind, err)
	}

	metrics.AnalysisRequestsTotal.WithLabelValues(kind, metrics.OutcomeOK).Inc()
	metrics.GeneratedCharsTotal.WithLabelValues(kind).Add(float64(len(out)))
	p.log.Debug("analysis generated",
		zap.String("kind", kind),
		zap.String("district", req.District),
		zap.String("unit", req.Unit),
		zap.Int("chars", len(out)),
	)
	return out, nil
}
