package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygenie/internal/prompt"
)

type stubModel struct {
	mu      sync.Mutex
	reply   func(prompt string, p Params) (string, error)
	prompts []string
	params  []Params
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Generate(_ context.Context, prompt string, p Params) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.params = append(m.params, p)
	m.mu.Unlock()
	return m.reply(prompt, p)
}

func (m *stubModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func TestGenerateOK(t *testing.T) {
	model := &stubModel{reply: func(prompt string, _ Params) (string, error) { return "echo: " + prompt, nil }}
	g := NewGenerator(model, GeneratorOptions{}, nil)

	res, err := g.Generate(context.Background(), Request{Kind: prompt.KindBasic, Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "echo: hello", res.Text)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, "stub", res.Provider)
	assert.False(t, res.Degraded())
	assert.Equal(t, ConversationParams, model.params[0])
}

func TestGenerateDegradesOnUpstreamFailure(t *testing.T) {
	model := &stubModel{reply: func(string, Params) (string, error) { return "", errors.New("quota exceeded") }}
	g := NewGenerator(model, GeneratorOptions{}, nil)

	kinds := []prompt.Kind{
		prompt.KindBasic, prompt.KindTutor, prompt.KindRoadmap, prompt.KindQuiz,
		prompt.KindFlashcards, prompt.KindProblems, prompt.KindRapidFire,
		prompt.KindStudyPlan, prompt.KindStudyMaterial, prompt.KindIntro,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			res, err := g.Generate(context.Background(), Request{Kind: kind, Prompt: "anything", Message: "anything"})
			require.NoError(t, err)
			assert.NotEmpty(t, strings.TrimSpace(res.Text))
			assert.True(t, res.Degraded())
			assert.Equal(t, ProviderFallback, res.Provider)
			assert.Contains(t, res.Reason, "quota exceeded")
		})
	}
}

func TestGenerateDegradesWithoutModel(t *testing.T) {
	g := NewGenerator(nil, GeneratorOptions{}, nil)

	res, err := g.Generate(context.Background(), Request{Kind: prompt.KindBasic, Prompt: "hi there", Message: "hi there"})
	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Contains(t, res.Text, "Hello!")
	assert.Equal(t, ProviderFallback, g.Provider())
}

func TestGenerateDegradesOnEmptyText(t *testing.T) {
	model := &stubModel{reply: func(string, Params) (string, error) { return "  \n", nil }}
	g := NewGenerator(model, GeneratorOptions{}, nil)

	res, err := g.Generate(context.Background(), Request{Kind: prompt.KindBasic, Prompt: "x"})
	require.NoError(t, err)
	assert.True(t, res.Degraded())
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	g := NewGenerator(nil, GeneratorOptions{}, nil)

	_, err := g.Generate(context.Background(), Request{Kind: prompt.KindBasic, Prompt: "   "})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestGenerateReturnsCallerCancellation(t *testing.T) {
	model := &stubModel{reply: func(string, Params) (string, error) { return "", context.Canceled }}
	g := NewGenerator(model, GeneratorOptions{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, Request{Kind: prompt.KindBasic, Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateJSON(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		model := &stubModel{reply: func(string, Params) (string, error) {
			return "```json\n{\"summary\":\"x\",\"keyPoints\":[\"a\"]}\n```", nil
		}}
		g := NewGenerator(model, GeneratorOptions{}, nil)

		var sm StudyMaterial
		res, err := g.GenerateJSON(context.Background(), Request{Kind: prompt.KindStudyMaterial, Prompt: "p"}, &sm)
		require.NoError(t, err)
		assert.Equal(t, "x", sm.Summary)
		assert.Contains(t, sm.KeyPoints, "a")
		assert.False(t, res.Degraded())
		assert.Equal(t, StructuredParams, model.params[0])
	})

	t.Run("malformed json", func(t *testing.T) {
		model := &stubModel{reply: func(string, Params) (string, error) {
			return "```json\n{\"summary\": \"x\", \n```", nil
		}}
		g := NewGenerator(model, GeneratorOptions{}, nil)

		var sm StudyMaterial
		_, err := g.GenerateJSON(context.Background(), Request{Kind: prompt.KindStudyMaterial, Prompt: "p"}, &sm)
		assert.ErrorIs(t, err, ErrMalformedGeneration)
	})

	t.Run("fallback parses into the requested shape", func(t *testing.T) {
		g := NewGenerator(nil, GeneratorOptions{}, nil)

		var quiz []QuizQuestion
		res, err := g.GenerateJSON(context.Background(), Request{Kind: prompt.KindQuiz, Prompt: "p", Topic: "optics"}, &quiz)
		require.NoError(t, err)
		assert.True(t, res.Degraded())
		require.Len(t, quiz, 1)
		assert.Contains(t, quiz[0].Question, "optics")
		assert.Len(t, quiz[0].Options, 4)

		var cards []Flashcard
		_, err = g.GenerateJSON(context.Background(), Request{Kind: prompt.KindFlashcards, Prompt: "p", Topic: "optics"}, &cards)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, "What is optics?", cards[0].Front)
	})
}

func TestStudyMaterialChunksSequentiallyAndDedupes(t *testing.T) {
	model := &stubModel{reply: func(prompt string, _ Params) (string, error) {
		part := "one"
		if strings.Contains(prompt, "Part 2 of") {
			part = "two"
		}
		return "```json\n{" +
			`"summary":"summary ` + part + `",` +
			`"keyPoints":["Shared point","shared  POINT","only ` + part + `"],` +
			`"flashcards":[{"question":"Q?","answer":"A"}],` +
			`"quiz":[{"question":"Same?","options":["a","b","c","d"],"correctIndex":0}]` +
			"}\n```", nil
	}}
	g := NewGenerator(model, GeneratorOptions{ChunkSize: 10}, nil)

	sm, res, err := g.StudyMaterial(context.Background(), "abcdefghij0123456789", "Make notes.")
	require.NoError(t, err)

	assert.Equal(t, 2, model.calls())
	assert.True(t, strings.HasPrefix(model.prompts[0], "Make notes."))
	assert.True(t, strings.HasSuffix(model.prompts[0], "abcdefghij"))
	assert.True(t, strings.HasSuffix(model.prompts[1], "0123456789"))

	assert.Equal(t, "summary one\n\n---\n\nsummary two", sm.Summary)
	assert.Equal(t, []string{"Shared point", "only one", "only two"}, sm.KeyPoints)
	assert.Len(t, sm.Flashcards, 1)
	assert.Len(t, sm.Quiz, 1)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, sm.Summary, res.Text)

	seen := map[string]bool{}
	for _, kp := range sm.KeyPoints {
		key := dedupeKey(kp)
		assert.False(t, seen[key], "duplicate key point %q", kp)
		seen[key] = true
	}
}

func TestStudyMaterialSingleChunk(t *testing.T) {
	model := &stubModel{reply: func(string, Params) (string, error) {
		return `{"summary":"short","keyPoints":[]}`, nil
	}}
	g := NewGenerator(model, GeneratorOptions{}, nil)

	sm, _, err := g.StudyMaterial(context.Background(), "short text", "Notes please.")
	require.NoError(t, err)
	assert.Equal(t, 1, model.calls())
	assert.NotContains(t, model.prompts[0], "Part 1")
	assert.Equal(t, "short", sm.Summary)
	assert.NotNil(t, sm.KeyPoints)
}

func TestStudyMaterialDegradedWithoutModel(t *testing.T) {
	g := NewGenerator(nil, GeneratorOptions{}, nil)

	sm, res, err := g.StudyMaterial(context.Background(), "Cells divide. Plants grow! Water flows?", "Notes.")
	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Equal(t, []string{"Cells divide", "Plants grow", "Water flows"}, sm.KeyPoints)
}

func TestStudyMaterialMalformedChunkFails(t *testing.T) {
	model := &stubModel{reply: func(string, Params) (string, error) { return "not json at all", nil }}
	g := NewGenerator(model, GeneratorOptions{}, nil)

	_, _, err := g.StudyMaterial(context.Background(), "content", "Notes.")
	assert.ErrorIs(t, err, ErrMalformedGeneration)
}

func TestStudyMaterialEmptyInput(t *testing.T) {
	g := NewGenerator(nil, GeneratorOptions{}, nil)

	_, _, err := g.StudyMaterial(context.Background(), " \n ", "Notes.")
	assert.ErrorIs(t, err, ErrEmptyInput)
}
