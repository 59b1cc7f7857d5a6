package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"studygenie/internal/prompt"
)

var ErrEmptyInput = errors.New("generation input is empty")

// ProviderFallback is reported when the text came from a built-in template.
const ProviderFallback = "fallback"

type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
)

// Result tells a real model answer apart from a templated fallback.
type Result struct {
	Text     string
	Outcome  Outcome
	Provider string
	Reason   string
}

func (r Result) Degraded() bool {
	return r.Outcome == OutcomeDegraded
}

// Request is one generation call. Prompt is sent upstream; the other fields
// only steer the fallback template.
type Request struct {
	Kind      prompt.Kind
	Prompt    string
	Message   string
	Topic     string
	HasSource bool
	Content   string
}

type GeneratorOptions struct {
	ChunkSize int
	Timeout   time.Duration
}

type Generator struct {
	model     Model
	logger    *zap.Logger
	chunkSize int
	timeout   time.Duration
}

// NewGenerator builds a Generator. A nil model is allowed: every call then
// degrades to the fallback templates.
func NewGenerator(model Model, opts GeneratorOptions, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Generator{
		model:     model,
		logger:    logger,
		chunkSize: opts.ChunkSize,
		timeout:   opts.Timeout,
	}
}

func (g *Generator) Provider() string {
	if g.model == nil {
		return ProviderFallback
	}
	return g.model.Name()
}

// Generate never returns an upstream failure: it is logged and the result is
// marked Degraded. Only an empty prompt or a cancelled caller fail.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, ErrEmptyInput
	}
	if g.model == nil {
		return g.degrade(req, "no generation model configured"), nil
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.model.Generate(callCtx, req.Prompt, ParamsFor(req.Kind))
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		g.logger.Warn("generation failed, using fallback",
			zap.String("kind", string(req.Kind)),
			zap.String("provider", g.model.Name()),
			zap.Error(err),
		)
		return g.degrade(req, err.Error()), nil
	}
	if strings.TrimSpace(text) == "" {
		g.logger.Warn("generation returned empty text, using fallback",
			zap.String("kind", string(req.Kind)),
			zap.String("provider", g.model.Name()),
		)
		return g.degrade(req, "empty upstream response"), nil
	}

	return Result{Text: text, Outcome: OutcomeOK, Provider: g.model.Name()}, nil
}

// GenerateJSON runs Generate and decodes the text into out. A response that
// does not parse is ErrMalformedGeneration.
func (g *Generator) GenerateJSON(ctx context.Context, req Request, out any) (Result, error) {
	res, err := g.Generate(ctx, req)
	if err != nil {
		return res, err
	}
	if err := ParseStructured(res.Text, out); err != nil {
		g.logger.Warn("structured generation did not parse",
			zap.String("kind", string(req.Kind)),
			zap.String("provider", res.Provider),
			zap.Error(err),
		)
		return res, err
	}
	return res, nil
}

// StudyMaterial turns text into study materials. Text longer than the chunk
// size is processed one chunk after another and the parts are merged.
func (g *Generator) StudyMaterial(ctx context.Context, text, instruction string) (StudyMaterial, Result, error) {
	chunks := chunkText(text, g.chunkSize)
	if len(chunks) == 0 {
		return StudyMaterial{}, Result{}, ErrEmptyInput
	}

	var (
		merged StudyMaterial
		agg    = Result{Outcome: OutcomeOK}
	)
	for i, chunk := range chunks {
		header := strings.TrimSpace(instruction)
		if len(chunks) > 1 {
			header += fmt.Sprintf("\n\n(Part %d of %d of a longer document.)", i+1, len(chunks))
		}

		var part StudyMaterial
		res, err := g.GenerateJSON(ctx, Request{
			Kind:    prompt.KindStudyMaterial,
			Prompt:  header + "\n\n" + chunk,
			Content: chunk,
		}, &part)
		if err != nil {
			return StudyMaterial{}, res, fmt.Errorf("study material chunk %d/%d: %w", i+1, len(chunks), err)
		}

		merged = mergeStudyMaterial(merged, part)
		agg.Provider = res.Provider
		if res.Degraded() {
			agg.Outcome = OutcomeDegraded
			agg.Reason = res.Reason
		}
	}
	if merged.KeyPoints == nil {
		merged.KeyPoints = []string{}
	}
	agg.Text = merged.Summary
	return merged, agg, nil
}

func (g *Generator) degrade(req Request, reason string) Result {
	return Result{
		Text:     fallbackText(req),
		Outcome:  OutcomeDegraded,
		Provider: ProviderFallback,
		Reason:   reason,
	}
}
