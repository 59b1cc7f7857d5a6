package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"studygenie/internal/ai"
	"studygenie/internal/ingest"
	"studygenie/internal/model"
	"studygenie/internal/prompt"
	"studygenie/internal/session"
)

const sourcePreviewChars = 280

type SourceService struct {
	conv     *Conversation
	ingestor Ingestor
	records  SourceRecords
}

type UploadInput struct {
	SessionID string
	UserID    uint
	File      *ingest.FileInput
	URL       string
	Text      string
}

type UploadResult struct {
	SessionID        string `json:"sessionId"`
	SourceType       string `json:"sourceType"`
	SourceName       string `json:"sourceName,omitempty"`
	InitialAIMessage string `json:"initialAIMessage"`
	Provider         string `json:"provider"`
	Degraded         bool   `json:"degraded"`
}

type SourceInfo struct {
	SessionID string    `json:"sessionId"`
	Type      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	MimeType  string    `json:"mimeType,omitempty"`
	Chars     int       `json:"chars"`
	Preview   string    `json:"preview"`
	Live      bool      `json:"live"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSourceService builds the service. records may be nil when no document
// store is configured.
func NewSourceService(conv *Conversation, ingestor Ingestor, records SourceRecords) *SourceService {
	return &SourceService{conv: conv, ingestor: ingestor, records: records}
}

// Upload ingests one source and generates the introductory message. The
// source (replacing any earlier one, keeping the turns) and the intro turn are
// stored together once generation succeeds.
func (s *SourceService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	extracted, err := s.ingestor.Ingest(ctx, ingest.Input{File: input.File, URL: input.URL, Text: input.Text})
	if err != nil {
		return nil, err
	}

	sessionID := newSessionID(input.SessionID)
	src := &session.Source{
		Type:     string(extracted.Type),
		Name:     extracted.Name,
		MimeType: extracted.MimeType,
		Text:     extracted.Text,
	}

	var res ai.Result
	err = s.conv.Sequencer.Do(ctx, sessionID, func(ctx context.Context) error {
		sc, err := s.conv.Store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		sc.Source = src
		p, err := s.conv.Composer.Compose(prompt.KindIntro, sc, "", prompt.Params{SourceType: src.Type})
		if err != nil {
			return err
		}
		res, err = s.conv.Generator.Generate(ctx, ai.Request{Kind: prompt.KindIntro, Prompt: p, HasSource: true})
		if err != nil {
			return err
		}
		_, err = s.conv.Store.Put(ctx, sessionID, session.Delta{
			Source: src,
			Turns:  []session.Turn{{Role: session.RoleAssistant, Text: res.Text}},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.conv.logger().Info("source ingested",
		zap.String("session_id", sessionID),
		zap.String("type", src.Type),
		zap.Int("chars", utf8.RuneCountInString(src.Text)),
		zap.Bool("degraded", res.Degraded()),
	)
	s.saveRecord(ctx, sessionID, input.UserID, src)
	s.conv.record(ctx, sessionID, input.UserID, prompt.KindIntro, "", res)

	return &UploadResult{
		SessionID:        sessionID,
		SourceType:       src.Type,
		SourceName:       src.Name,
		InitialAIMessage: res.Text,
		Provider:         res.Provider,
		Degraded:         res.Degraded(),
	}, nil
}

// Get describes the session's source. When the live session has expired the
// durable record is used if there is one.
func (s *SourceService) Get(ctx context.Context, sessionID string) (*SourceInfo, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidInput
	}

	sc, err := s.conv.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sc.HasSource() {
		return &SourceInfo{
			SessionID: sessionID,
			Type:      sc.Source.Type,
			Name:      sc.Source.Name,
			MimeType:  sc.Source.MimeType,
			Chars:     utf8.RuneCountInString(sc.Source.Text),
			Preview:   preview(sc.Source.Text),
			Live:      true,
			UpdatedAt: sc.UpdatedAt,
		}, nil
	}

	if s.records == nil {
		return nil, ErrSessionNotFound
	}
	rec, err := s.records.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrSessionNotFound
	}
	return &SourceInfo{
		SessionID: rec.SessionID,
		Type:      rec.Type,
		Name:      rec.Name,
		MimeType:  rec.MimeType,
		Chars:     rec.Chars,
		Preview:   rec.Preview,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *SourceService) saveRecord(ctx context.Context, sessionID string, userID uint, src *session.Source) {
	if s.records == nil {
		return
	}
	err := s.records.Upsert(ctx, model.SourceRecord{
		SessionID: sessionID,
		Type:      src.Type,
		Name:      src.Name,
		MimeType:  src.MimeType,
		Chars:     utf8.RuneCountInString(src.Text),
		Preview:   preview(src.Text),
		UserID:    userID,
	})
	if err != nil {
		s.conv.logger().Warn("save source record failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= sourcePreviewChars {
		return text
	}
	return string([]rune(text)[:sourcePreviewChars]) + "…"
}
