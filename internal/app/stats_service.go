package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"studygenie/internal/session"
)

// MessageCounter reports how many transcript messages were persisted.
type MessageCounter interface {
	CountBySessionID(ctx context.Context, sessionID string) (int64, error)
}

type StatsService struct {
	conv     *Conversation
	messages MessageCounter
}

type SessionStats struct {
	SessionID        string    `json:"id"`
	HasSource        bool      `json:"hasSource"`
	SourceType       string    `json:"sourceType,omitempty"`
	SourceChars      int       `json:"sourceChars"`
	Turns            int       `json:"turns"`
	UserTurns        int       `json:"userTurns"`
	AssistantTurns   int       `json:"assistantTurns"`
	RecordedMessages *int64    `json:"recordedMessages,omitempty"`
	Duration         string    `json:"duration"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewStatsService builds the service; messages may be nil when no
// transcript database is configured.
func NewStatsService(conv *Conversation, messages MessageCounter) *StatsService {
	return &StatsService{conv: conv, messages: messages}
}

func (s *StatsService) Session(ctx context.Context, sessionID string) (*SessionStats, error) {
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

	st := &SessionStats{
		SessionID: sessionID,
		HasSource: sc.HasSource(),
		Turns:     len(sc.Turns),
		CreatedAt: sc.CreatedAt,
		UpdatedAt: sc.UpdatedAt,
		Duration:  sc.UpdatedAt.Sub(sc.CreatedAt).Round(time.Second).String(),
	}
	if sc.Source != nil {
		st.SourceType = sc.Source.Type
		st.SourceChars = utf8.RuneCountInString(sc.Source.Text)
	}
	for _, t := range sc.Turns {
		switch t.Role {
		case session.RoleUser:
			st.UserTurns++
		case session.RoleAssistant:
			st.AssistantTurns++
		}
	}

	if s.messages != nil {
		n, err := s.messages.CountBySessionID(ctx, sessionID)
		if err != nil {
			s.conv.logger().Warn("count transcript messages failed", zap.String("session_id", sessionID), zap.Error(err))
		} else {
			st.RecordedMessages = &n
		}
	}
	return st, nil
}
