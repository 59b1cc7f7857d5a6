package app

import (
	"context"
	"strings"
	"time"

	"studygenie/internal/ai"
	"studygenie/internal/prompt"
	"studygenie/internal/session"
)

const maxToolItems = 50

// ToolsService generates the standalone study tools. A session id is
// optional; when given, its source grounds quizzes and flashcards.
type ToolsService struct {
	conv *Conversation
}

type QuizInput struct {
	SessionID    string
	Topic        string
	Difficulty   string
	Count        int
	QuestionType string
}

type FlashcardsInput struct {
	SessionID  string
	Topic      string
	Difficulty string
	Count      int
}

type ProblemsInput struct {
	Topic        string
	Difficulty   string
	Count        int
	IncludeSteps bool
}

type RapidFireInput struct {
	Topic      string
	Difficulty string
	Count      int
	TimeLimit  int
}

type StudyPlanInput struct {
	Goals         []string
	TimeAvailable string
	LearningStyle string
	CurrentLevel  string
}

type Meta struct {
	Provider  string    `json:"provider"`
	Degraded  bool      `json:"degraded"`
	Timestamp time.Time `json:"timestamp"`
}

type QuizResult struct {
	Questions []ai.QuizQuestion `json:"questions"`
	Meta
}

type FlashcardsResult struct {
	Flashcards []ai.Flashcard `json:"flashcards"`
	Meta
}

type TextResult struct {
	Text string `json:"text"`
	Meta
}

type StudyMaterialResult struct {
	Material ai.StudyMaterial `json:"material"`
	Meta
}

var studyMaterialFocus = map[string]bool{"quiz": true, "summary": true, "flashcards": true, "all": true}

func NewToolsService(conv *Conversation) *ToolsService {
	return &ToolsService{conv: conv}
}

func (s *ToolsService) Quiz(ctx context.Context, input QuizInput) (*QuizResult, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" || !validCount(input.Count) {
		return nil, ErrInvalidInput
	}
	sc, err := s.sessionContext(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	p, err := s.conv.Composer.Compose(prompt.KindQuiz, sc, "", prompt.Params{
		Topic:        topic,
		Difficulty:   input.Difficulty,
		Count:        input.Count,
		QuestionType: input.QuestionType,
	})
	if err != nil {
		return nil, err
	}

	var questions []ai.QuizQuestion
	res, err := s.conv.Generator.GenerateJSON(ctx, ai.Request{Kind: prompt.KindQuiz, Prompt: p, Topic: topic}, &questions)
	if err != nil {
		return nil, err
	}
	return &QuizResult{Questions: questions, Meta: newMeta(res)}, nil
}

func (s *ToolsService) Flashcards(ctx context.Context, input FlashcardsInput) (*FlashcardsResult, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" || !validCount(input.Count) {
		return nil, ErrInvalidInput
	}
	sc, err := s.sessionContext(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	p, err := s.conv.Composer.Compose(prompt.KindFlashcards, sc, "", prompt.Params{
		Topic:      topic,
		Difficulty: input.Difficulty,
		Count:      input.Count,
	})
	if err != nil {
		return nil, err
	}

	var cards []ai.Flashcard
	res, err := s.conv.Generator.GenerateJSON(ctx, ai.Request{Kind: prompt.KindFlashcards, Prompt: p, Topic: topic}, &cards)
	if err != nil {
		return nil, err
	}
	return &FlashcardsResult{Flashcards: cards, Meta: newMeta(res)}, nil
}

func (s *ToolsService) Problems(ctx context.Context, input ProblemsInput) (*TextResult, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" || !validCount(input.Count) {
		return nil, ErrInvalidInput
	}
	p, err := s.conv.Composer.Compose(prompt.KindProblems, session.Context{}, "", prompt.Params{
		Topic:        topic,
		Difficulty:   input.Difficulty,
		Count:        input.Count,
		IncludeSteps: input.IncludeSteps,
	})
	if err != nil {
		return nil, err
	}
	return s.text(ctx, ai.Request{Kind: prompt.KindProblems, Prompt: p, Topic: topic})
}

func (s *ToolsService) RapidFire(ctx context.Context, input RapidFireInput) (*QuizResult, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" || !validCount(input.Count) || input.TimeLimit < 0 {
		return nil, ErrInvalidInput
	}
	p, err := s.conv.Composer.Compose(prompt.KindRapidFire, session.Context{}, "", prompt.Params{
		Topic:      topic,
		Difficulty: input.Difficulty,
		Count:      input.Count,
		TimeLimit:  input.TimeLimit,
	})
	if err != nil {
		return nil, err
	}

	var questions []ai.QuizQuestion
	res, err := s.conv.Generator.GenerateJSON(ctx, ai.Request{Kind: prompt.KindRapidFire, Prompt: p, Topic: topic}, &questions)
	if err != nil {
		return nil, err
	}
	return &QuizResult{Questions: questions, Meta: newMeta(res)}, nil
}

func (s *ToolsService) StudyPlan(ctx context.Context, input StudyPlanInput) (*TextResult, error) {
	goals := make([]string, 0, len(input.Goals))
	for _, g := range input.Goals {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, g)
		}
	}
	if len(goals) == 0 {
		return nil, ErrInvalidInput
	}
	p, err := s.conv.Composer.Compose(prompt.KindStudyPlan, session.Context{}, "", prompt.Params{
		Goals:         goals,
		TimeAvailable: input.TimeAvailable,
		LearningStyle: input.LearningStyle,
		Level:         input.CurrentLevel,
	})
	if err != nil {
		return nil, err
	}
	return s.text(ctx, ai.Request{Kind: prompt.KindStudyPlan, Prompt: p, Topic: strings.Join(goals, ", ")})
}

// StudyMaterial builds summary, key points, flashcards and quiz for pasted
// content. focus is one of quiz, summary, flashcards or all.
func (s *ToolsService) StudyMaterial(ctx context.Context, content, focus string) (*StudyMaterialResult, error) {
	focus = strings.ToLower(strings.TrimSpace(focus))
	if strings.TrimSpace(content) == "" || !studyMaterialFocus[focus] {
		return nil, ErrInvalidInput
	}
	instruction, err := s.conv.Composer.Compose(prompt.KindStudyMaterial, session.Context{}, "", prompt.Params{Focus: focus})
	if err != nil {
		return nil, err
	}
	material, res, err := s.conv.Generator.StudyMaterial(ctx, content, instruction)
	if err != nil {
		return nil, err
	}
	return &StudyMaterialResult{Material: material, Meta: newMeta(res)}, nil
}

func (s *ToolsService) text(ctx context.Context, req ai.Request) (*TextResult, error) {
	res, err := s.conv.Generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &TextResult{Text: res.Text, Meta: newMeta(res)}, nil
}

func (s *ToolsService) sessionContext(ctx context.Context, sessionID string) (session.Context, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Context{}, nil
	}
	return s.conv.Store.Get(ctx, sessionID)
}

func validCount(n int) bool {
	return n >= 0 && n <= maxToolItems
}

func newMeta(res ai.Result) Meta {
	return Meta{Provider: res.Provider, Degraded: res.Degraded(), Timestamp: time.Now().UTC()}
}
