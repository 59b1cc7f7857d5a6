package ai

import (
	"context"

	"studygenie/internal/prompt"
)

// Params are the decoding parameters sent with one call. They are fixed per
// prompt kind.
type Params struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	JSON            bool
}

var (
	ConversationParams = Params{Temperature: 0.7, TopP: 0.9, TopK: 40, MaxOutputTokens: 2048}
	FlashcardParams    = Params{Temperature: 0.8, TopP: 0.9, TopK: 40, MaxOutputTokens: 1000, JSON: true}
	StructuredParams   = Params{Temperature: 0.3, TopP: 0.95, TopK: 40, MaxOutputTokens: 8192, JSON: true}
)

func ParamsFor(kind prompt.Kind) Params {
	switch kind {
	case prompt.KindFlashcards:
		return FlashcardParams
	case prompt.KindQuiz, prompt.KindRapidFire, prompt.KindStudyMaterial:
		return StructuredParams
	default:
		return ConversationParams
	}
}

// Model is one upstream text generation backend.
type Model interface {
	Generate(ctx context.Context, prompt string, p Params) (string, error)
	Name() string
}
