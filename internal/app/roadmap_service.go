package app

import (
	"context"
	"strings"
	"time"

	"studygenie/internal/ai"
	"studygenie/internal/prompt"
	"studygenie/internal/session"
)

type RoadmapService struct {
	conv *Conversation
}

type RoadmapInput struct {
	SessionID   string
	UserID      uint
	Topic       string
	Description string
	Level       string
	Timeframe   string
	Goals       []string
	Preferences prompt.Preferences
}

type RoadmapResult struct {
	SessionID   string    `json:"sessionId"`
	Topic       string    `json:"topic"`
	Level       string    `json:"level"`
	Timeframe   string    `json:"timeframe"`
	Goals       []string  `json:"goals"`
	Roadmap     string    `json:"roadmap"`
	Provider    string    `json:"provider"`
	Degraded    bool      `json:"degraded"`
	GeneratedAt time.Time `json:"timestamp"`
}

// ProgressStep is one milestone of a study session.
type ProgressStep struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

type Progress struct {
	SessionID      string         `json:"sessionId"`
	Progress       int            `json:"progress"`
	CompletedSteps []string       `json:"completedSteps"`
	CurrentStep    int            `json:"currentStep"`
	TotalSteps     int            `json:"totalSteps"`
	Steps          []ProgressStep `json:"steps"`
}

func NewRoadmapService(conv *Conversation) *RoadmapService {
	return &RoadmapService{conv: conv}
}

// Generate builds a roadmap from the request and the session's source. The
// roadmap is recorded in the transcript but not added to the chat turns.
func (s *RoadmapService) Generate(ctx context.Context, input RoadmapInput) (*RoadmapResult, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	topic := strings.TrimSpace(input.Topic)
	if sessionID == "" || topic == "" {
		return nil, ErrInvalidInput
	}

	sc, err := s.conv.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	params := prompt.Params{
		Topic:       topic,
		Description: input.Description,
		Level:       input.Level,
		Timeframe:   input.Timeframe,
		Goals:       input.Goals,
		Preferences: input.Preferences,
	}
	p, err := s.conv.Composer.Compose(prompt.KindRoadmap, sc, "", params)
	if err != nil {
		return nil, err
	}
	res, err := s.conv.Generator.Generate(ctx, ai.Request{
		Kind:      prompt.KindRoadmap,
		Prompt:    p,
		Topic:     topic,
		HasSource: sc.HasSource(),
	})
	if err != nil {
		return nil, err
	}
	s.conv.record(ctx, sessionID, input.UserID, prompt.KindRoadmap, "roadmap: "+topic, res)

	goals := input.Goals
	if goals == nil {
		goals = []string{}
	}
	return &RoadmapResult{
		SessionID:   sessionID,
		Topic:       topic,
		Level:       defaultString(input.Level, "beginner"),
		Timeframe:   defaultString(input.Timeframe, "4 weeks"),
		Goals:       goals,
		Roadmap:     res.Text,
		Provider:    res.Provider,
		Degraded:    res.Degraded(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Progress derives milestone completion from what the session holds.
func (s *RoadmapService) Progress(ctx context.Context, sessionID string) (*Progress, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	sc, err := s.conv.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sc.IsEmpty() {
		return nil, ErrSessionNotFound
	}

	questions := 0
	for _, t := range sc.Turns {
		if t.Role == session.RoleUser {
			questions++
		}
	}
	steps := []ProgressStep{
		{Name: "Add a study source", Done: sc.HasSource()},
		{Name: "Ask a first question", Done: questions >= 1},
		{Name: "Explore the material (5 questions)", Done: questions >= 5},
		{Name: "Deep dive (10 questions)", Done: questions >= 10},
	}

	p := &Progress{
		SessionID:      sessionID,
		CompletedSteps: []string{},
		TotalSteps:     len(steps),
		Steps:          steps,
	}
	for _, st := range steps {
		if st.Done {
			p.CompletedSteps = append(p.CompletedSteps, st.Name)
		}
	}
	p.Progress = len(p.CompletedSteps) * 100 / len(steps)
	p.CurrentStep = len(p.CompletedSteps) + 1
	if p.CurrentStep > len(steps) {
		p.CurrentStep = len(steps)
	}
	return p, nil
}

func defaultString(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
