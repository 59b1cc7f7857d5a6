package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studygenie/internal/ai"
	"studygenie/internal/ingest"
	"studygenie/internal/prompt"
	"studygenie/internal/session"
)

const historyLimit = 100

type ChatService struct {
	conv        *Conversation
	ingestor    Ingestor
	transcripts TranscriptReader
}

type ChatInput struct {
	SessionID string
	UserID    uint
	Message   string
	Topic     string
}

type TutorInput struct {
	SessionID    string
	UserID       uint
	Message      string
	Subject      string
	StudentLevel string
}

type StudyChatInput struct {
	SessionID string
	UserID    uint
	Message   string
	File      *ingest.FileInput
}

type ChatReply struct {
	SessionID string    `json:"sessionId"`
	Reply     string    `json:"reply"`
	Provider  string    `json:"provider"`
	Degraded  bool      `json:"degraded"`
	Timestamp time.Time `json:"timestamp"`
}

type StudyChatReply struct {
	SessionID  string            `json:"sessionId"`
	Response   string            `json:"response"`
	KeyPoints  []string          `json:"keyPoints,omitempty"`
	Flashcards []ai.StudyCard    `json:"flashcards,omitempty"`
	Quiz       []ai.QuizQuestion `json:"quiz,omitempty"`
	Provider   string            `json:"provider"`
	Degraded   bool              `json:"degraded"`
}

// NewChatService builds the chat service. transcripts may be nil; when set,
// History falls back to it for sessions the store no longer holds.
func NewChatService(conv *Conversation, ingestor Ingestor, transcripts TranscriptReader) *ChatService {
	return &ChatService{conv: conv, ingestor: ingestor, transcripts: transcripts}
}

// Basic answers from the rolling conversation history only. A missing
// session id starts a new session.
func (s *ChatService) Basic(ctx context.Context, input ChatInput) (*ChatReply, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrMessageEmpty
	}
	sessionID := newSessionID(input.SessionID)

	res, err := s.conv.exchange(ctx, sessionID, message, func(sc session.Context) (ai.Request, error) {
		p, err := s.conv.Composer.Compose(prompt.KindBasic, sc, message, prompt.Params{Topic: input.Topic})
		if err != nil {
			return ai.Request{}, err
		}
		return ai.Request{Kind: prompt.KindBasic, Prompt: p, Message: message, Topic: input.Topic}, nil
	})
	if err != nil {
		return nil, err
	}
	s.conv.record(ctx, sessionID, input.UserID, prompt.KindBasic, message, res)
	return newChatReply(sessionID, res), nil
}

// Tutor answers grounded in the session's stored source.
func (s *ChatService) Tutor(ctx context.Context, input TutorInput) (*ChatReply, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrMessageEmpty
	}

	res, err := s.conv.exchange(ctx, sessionID, message, func(sc session.Context) (ai.Request, error) {
		p, err := s.conv.Composer.Compose(prompt.KindTutor, sc, message, prompt.Params{
			Topic: input.Subject,
			Level: input.StudentLevel,
		})
		if err != nil {
			return ai.Request{}, err
		}
		return ai.Request{
			Kind:      prompt.KindTutor,
			Prompt:    p,
			Message:   message,
			Topic:     input.Subject,
			HasSource: sc.HasSource(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.conv.record(ctx, sessionID, input.UserID, prompt.KindTutor, message, res)
	return newChatReply(sessionID, res), nil
}

func (s *ChatService) History(ctx context.Context, sessionID string) ([]session.Turn, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	sc, err := s.conv.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sc.IsEmpty() {
		return s.recordedHistory(ctx, sessionID)
	}
	if sc.Turns == nil {
		return []session.Turn{}, nil
	}
	return sc.Turns, nil
}

// recordedHistory rebuilds the turns of an expired or evicted session from
// the persisted transcript.
func (s *ChatService) recordedHistory(ctx context.Context, sessionID string) ([]session.Turn, error) {
	if s.transcripts == nil {
		return nil, ErrSessionNotFound
	}
	msgs, err := s.transcripts.ListBySessionID(ctx, sessionID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load recorded history failed: %w", err)
	}
	if len(msgs) == 0 {
		return nil, ErrSessionNotFound
	}
	turns := make([]session.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, session.Turn{Role: m.Role, Text: m.Content, At: m.CreatedAt})
	}
	return turns, nil
}

// StudyChat turns a message, an attached document, or both into structured
// study materials. Long inputs are processed in chunks.
func (s *ChatService) StudyChat(ctx context.Context, input StudyChatInput) (*StudyChatReply, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" && input.File == nil {
		return nil, ErrInvalidInput
	}

	content := message
	userText := message
	if input.File != nil {
		extracted, err := s.ingestor.Ingest(ctx, ingest.Input{File: input.File})
		if err != nil {
			return nil, err
		}
		content = extracted.Text
		if userText == "" {
			userText = fmt.Sprintf("[file] %s", extracted.Name)
		}
	}

	sessionID := newSessionID(input.SessionID)
	var (
		material ai.StudyMaterial
		res      ai.Result
	)
	err := s.conv.Sequencer.Do(ctx, sessionID, func(ctx context.Context) error {
		sc, err := s.conv.Store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		instructionMessage := message
		if input.File == nil {
			// The message itself is the content; do not repeat it.
			instructionMessage = ""
		}
		instruction, err := s.conv.Composer.Compose(prompt.KindStudyMaterial, sc, instructionMessage, prompt.Params{})
		if err != nil {
			return err
		}
		material, res, err = s.conv.Generator.StudyMaterial(ctx, content, instruction)
		if err != nil {
			return err
		}
		_, err = s.conv.Store.Put(ctx, sessionID, session.Delta{Turns: []session.Turn{
			{Role: session.RoleUser, Text: userText},
			{Role: session.RoleAssistant, Text: material.Summary},
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.conv.record(ctx, sessionID, input.UserID, prompt.KindStudyMaterial, userText, res)

	return &StudyChatReply{
		SessionID:  sessionID,
		Response:   material.Summary,
		KeyPoints:  material.KeyPoints,
		Flashcards: material.Flashcards,
		Quiz:       material.Quiz,
		Provider:   res.Provider,
		Degraded:   res.Degraded(),
	}, nil
}

func newChatReply(sessionID string, res ai.Result) *ChatReply {
	return &ChatReply{
		SessionID: sessionID,
		Reply:     res.Text,
		Provider:  res.Provider,
		Degraded:  res.Degraded(),
		Timestamp: time.Now().UTC(),
	}
}
