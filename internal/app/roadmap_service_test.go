package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygenie/internal/prompt"
	"studygenie/internal/session"
)

func TestRoadmapGenerate(t *testing.T) {
	f := newFixture(t, echoModel())
	roadmaps := NewRoadmapService(f.conv)
	ctx := context.Background()

	_, err := f.store.Put(ctx, "r1", session.Delta{Source: &session.Source{Type: "text", Text: "Cells divide by mitosis."}})
	require.NoError(t, err)

	res, err := roadmaps.Generate(ctx, RoadmapInput{
		SessionID:   "r1",
		Topic:       "Cell biology",
		Goals:       []string{"explain mitosis"},
		Preferences: prompt.Preferences{Pace: "fast"},
	})
	require.NoError(t, err)

	assert.Equal(t, "beginner", res.Level)
	assert.Equal(t, "4 weeks", res.Timeframe)
	lower := strings.ToLower(res.Roadmap)
	assert.Contains(t, lower, "overview")
	assert.Contains(t, lower, "prerequisites")
	assert.Contains(t, res.Roadmap, "Cells divide by mitosis.")
	assert.Contains(t, res.Roadmap, "**Learning Pace:** fast")

	sc, err := f.store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, sc.Turns)
	require.Len(t, f.transcript.all(), 2)
}

func TestRoadmapValidation(t *testing.T) {
	f := newFixture(t, echoModel())
	roadmaps := NewRoadmapService(f.conv)

	_, err := roadmaps.Generate(context.Background(), RoadmapInput{Topic: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = roadmaps.Generate(context.Background(), RoadmapInput{SessionID: "s"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRoadmapProgress(t *testing.T) {
	f := newFixture(t, echoModel())
	roadmaps := NewRoadmapService(f.conv)
	chat := NewChatService(f.conv, f.ingestor, f.transcript)
	ctx := context.Background()

	_, err := roadmaps.Progress(ctx, "none")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.store.Put(ctx, "p1", session.Delta{Source: &session.Source{Type: "text", Text: "src"}})
	require.NoError(t, err)
	_, err = chat.Tutor(ctx, TutorInput{SessionID: "p1", Message: "first"})
	require.NoError(t, err)

	p, err := roadmaps.Progress(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, p.TotalSteps)
	assert.Equal(t, 50, p.Progress)
	assert.Equal(t, 3, p.CurrentStep)
	assert.Len(t, p.CompletedSteps, 2)
}

func TestSessionStats(t *testing.T) {
	f := newFixture(t, echoModel())
	stats := NewStatsService(f.conv, nil)
	chat := NewChatService(f.conv, f.ingestor, f.transcript)
	ctx := context.Background()

	_, err := stats.Session(ctx, "none")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.store.Put(ctx, "st", session.Delta{Source: &session.Source{Type: "url", Text: "héllo"}})
	require.NoError(t, err)
	_, err = chat.Tutor(ctx, TutorInput{SessionID: "st", Message: "q"})
	require.NoError(t, err)

	st, err := stats.Session(ctx, "st")
	require.NoError(t, err)
	assert.True(t, st.HasSource)
	assert.Equal(t, "url", st.SourceType)
	assert.Equal(t, 5, st.SourceChars)
	assert.Equal(t, 2, st.Turns)
	assert.Equal(t, 1, st.UserTurns)
	assert.Equal(t, 1, st.AssistantTurns)
	assert.Nil(t, st.RecordedMessages)
}
