package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studygenie/internal/ai"
	"studygenie/internal/ingest"
	"studygenie/internal/model"
	"studygenie/internal/prompt"
	"studygenie/internal/session"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageEmpty    = errors.New("message content is empty")
)

// Generator is the generation surface the services need.
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (ai.Result, error)
	GenerateJSON(ctx context.Context, req ai.Request, out any) (ai.Result, error)
	StudyMaterial(ctx context.Context, text, instruction string) (ai.StudyMaterial, ai.Result, error)
}

type Ingestor interface {
	Ingest(ctx context.Context, in ingest.Input) (ingest.Result, error)
}

// TranscriptRecorder receives every chat turn. It is satisfied by the
// RabbitMQ publisher and by the MySQL message repository.
type TranscriptRecorder interface {
	Record(ctx context.Context, msg model.Message) error
}

// TranscriptReader returns the most recent recorded messages of a session,
// oldest first.
type TranscriptReader interface {
	ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
}

type SourceRecords interface {
	Upsert(ctx context.Context, rec model.SourceRecord) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.SourceRecord, error)
}

// Conversation bundles what every session-bound service uses: the store,
// the per-session sequencer, the composer and the generator.
type Conversation struct {
	Store      session.Store
	Sequencer  *session.Sequencer
	Composer   *prompt.Composer
	Generator  Generator
	Transcript TranscriptRecorder
	Logger     *zap.Logger
}

func (c *Conversation) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// exchange runs one read, generate, write cycle for a session while holding
// the session's sequencer slot. build returns the generation request from
// the current context.
func (c *Conversation) exchange(
	ctx context.Context,
	sessionID string,
	userText string,
	build func(sc session.Context) (ai.Request, error),
) (ai.Result, error) {
	var res ai.Result
	err := c.Sequencer.Do(ctx, sessionID, func(ctx context.Context) error {
		sc, err := c.Store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		req, err := build(sc)
		if err != nil {
			return err
		}
		res, err = c.Generator.Generate(ctx, req)
		if err != nil {
			return err
		}
		_, err = c.Store.Put(ctx, sessionID, session.Delta{Turns: []session.Turn{
			{Role: session.RoleUser, Text: userText},
			{Role: session.RoleAssistant, Text: res.Text},
		}})
		return err
	})
	return res, err
}

// record writes the transcript of one exchange. Failures are logged only.
func (c *Conversation) record(ctx context.Context, sessionID string, userID uint, kind prompt.Kind, userText string, res ai.Result) {
	if c.Transcript == nil {
		return
	}
	now := time.Now().UTC()
	msgs := make([]model.Message, 0, 2)
	if userText != "" {
		msgs = append(msgs, model.Message{
			SessionID: sessionID,
			UserID:    userID,
			Role:      session.RoleUser,
			Kind:      string(kind),
			Content:   userText,
			CreatedAt: now,
		})
	}
	msgs = append(msgs, model.Message{
		SessionID: sessionID,
		UserID:    userID,
		Role:      session.RoleAssistant,
		Kind:      string(kind),
		Provider:  res.Provider,
		Degraded:  res.Degraded(),
		Content:   res.Text,
		CreatedAt: now,
	})
	for _, m := range msgs {
		if err := c.Transcript.Record(ctx, m); err != nil {
			c.logger().Warn("record transcript failed",
				zap.String("session_id", sessionID),
				zap.String("role", m.Role),
				zap.Error(err),
			)
		}
	}
}

func newSessionID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
