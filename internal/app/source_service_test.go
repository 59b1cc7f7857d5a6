package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygenie/internal/ingest"
	"studygenie/internal/session"
)

func TestUploadThenTutorUsesSourceText(t *testing.T) {
	f := newFixture(t, echoModel())
	sources := NewSourceService(f.conv, f.ingestor, nil)
	chat := NewChatService(f.conv, f.ingestor, f.transcript)
	ctx := context.Background()

	up, err := sources.Upload(ctx, UploadInput{Text: "Photosynthesis converts light to energy."})
	require.NoError(t, err)
	require.NotEmpty(t, up.SessionID)
	assert.Equal(t, "text", up.SourceType)
	assert.Contains(t, up.InitialAIMessage, "I have processed a text source.")
	assert.Equal(t, "stub", up.Provider)
	assert.False(t, up.Degraded)

	reply, err := chat.Tutor(ctx, TutorInput{SessionID: up.SessionID, Message: "What does this describe?"})
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "Photosynthesis converts light to energy.")
	assert.Contains(t, reply.Reply, "User: What does this describe?")
	assert.Equal(t, up.SessionID, reply.SessionID)

	sc, err := f.store.Get(ctx, up.SessionID)
	require.NoError(t, err)
	require.Len(t, sc.Turns, 3)
	assert.Equal(t, session.RoleAssistant, sc.Turns[0].Role)
	assert.Equal(t, "What does this describe?", sc.Turns[1].Text)

	msgs := f.transcript.all()
	require.Len(t, msgs, 3)
	assert.Equal(t, "intro", msgs[0].Kind)
	assert.Equal(t, "tutor", msgs[2].Kind)
	assert.Equal(t, "stub", msgs[2].Provider)
}

func TestUploadKeepsGivenSessionAndOverwritesSource(t *testing.T) {
	f := newFixture(t, nil)
	sources := NewSourceService(f.conv, f.ingestor, nil)
	ctx := context.Background()

	first, err := sources.Upload(ctx, UploadInput{SessionID: "fixed", Text: "first source"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", first.SessionID)
	assert.True(t, first.Degraded)
	assert.Equal(t, "fallback", first.Provider)
	assert.NotEmpty(t, first.InitialAIMessage)

	_, err = sources.Upload(ctx, UploadInput{SessionID: "fixed", Text: "second source"})
	require.NoError(t, err)

	sc, err := f.store.Get(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "second source", sc.SourceText())
	assert.Len(t, sc.Turns, 2)
}

func TestUploadRejectsBadInput(t *testing.T) {
	f := newFixture(t, echoModel())
	sources := NewSourceService(f.conv, f.ingestor, nil)
	ctx := context.Background()

	_, err := sources.Upload(ctx, UploadInput{Text: "   "})
	assert.ErrorIs(t, err, ingest.ErrEmptySource)

	_, err = sources.Upload(ctx, UploadInput{})
	assert.ErrorIs(t, err, ingest.ErrInvalidInput)

	_, err = sources.Upload(ctx, UploadInput{File: &ingest.FileInput{Name: "a.png", MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}})
	assert.ErrorIs(t, err, ingest.ErrUnsupportedType)
	assert.Zero(t, f.store.Len())
}

func TestSourceGet(t *testing.T) {
	f := newFixture(t, echoModel())
	records := &memorySources{}
	sources := NewSourceService(f.conv, f.ingestor, records)
	ctx := context.Background()

	long := strings.Repeat("word ", 200)
	up, err := sources.Upload(ctx, UploadInput{Text: long})
	require.NoError(t, err)

	info, err := sources.Get(ctx, up.SessionID)
	require.NoError(t, err)
	assert.True(t, info.Live)
	assert.Equal(t, "text", info.Type)
	assert.Equal(t, len(long), info.Chars)
	assert.True(t, strings.HasSuffix(info.Preview, "…"))

	rec, err := records.GetBySessionID(ctx, up.SessionID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, info.Chars, rec.Chars)

	t.Run("falls back to the durable record", func(t *testing.T) {
		rec.SessionID = "expired"
		require.NoError(t, records.Upsert(ctx, *rec))

		got, err := sources.Get(ctx, "expired")
		require.NoError(t, err)
		assert.False(t, got.Live)
		assert.Equal(t, "text", got.Type)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := sources.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestUploadCancelledDuringIntroLeavesSessionUntouched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := &funcModel{reply: func(string) (string, error) { return "intro", nil }}
	f := newFixture(t, m)
	sources := NewSourceService(f.conv, f.ingestor, nil)

	_, err := sources.Upload(ctx, UploadInput{SessionID: "keep", Text: "original notes"})
	require.NoError(t, err)

	m.reply = func(string) (string, error) {
		cancel()
		return "", context.Canceled
	}
	_, err = sources.Upload(ctx, UploadInput{SessionID: "keep", Text: "replacement notes"})
	require.ErrorIs(t, err, context.Canceled)

	sc, err := f.store.Get(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, "original notes", sc.SourceText())
	assert.Len(t, sc.Turns, 1)

	t.Run("new session is not created", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		m.reply = func(string) (string, error) {
			cancel()
			return "", context.Canceled
		}
		_, err := sources.Upload(ctx, UploadInput{SessionID: "never", Text: "notes"})
		require.ErrorIs(t, err, context.Canceled)

		sc, err := f.store.Get(context.Background(), "never")
		require.NoError(t, err)
		assert.True(t, sc.IsEmpty())
	})
}
