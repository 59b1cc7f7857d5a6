package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studygenie/internal/ai"
	"studygenie/internal/ingest"
	"studygenie/internal/model"
	"studygenie/internal/prompt"
	"studygenie/internal/session"
)

// funcModel answers with whatever reply returns.
type funcModel struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	prompts []string
}

func (m *funcModel) Name() string { return "stub" }

func (m *funcModel) Generate(_ context.Context, prompt string, _ ai.Params) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.reply(prompt)
}

func (m *funcModel) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func echoModel() *funcModel {
	return &funcModel{reply: func(p string) (string, error) { return p, nil }}
}

type memoryTranscript struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (t *memoryTranscript) Record(_ context.Context, msg model.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msg)
	return nil
}

func (t *memoryTranscript) ListBySessionID(_ context.Context, sessionID string, limit int) ([]model.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.Message
	for _, m := range t.msgs {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (t *memoryTranscript) all() []model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Message(nil), t.msgs...)
}

type memorySources struct {
	mu   sync.Mutex
	recs map[string]model.SourceRecord
}

func (s *memorySources) Upsert(_ context.Context, rec model.SourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recs == nil {
		s.recs = map[string]model.SourceRecord{}
	}
	rec.UpdatedAt = time.Now()
	s.recs[rec.SessionID] = rec
	return nil
}

func (s *memorySources) GetBySessionID(_ context.Context, id string) (*model.SourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

type fixture struct {
	conv       *Conversation
	store      *session.MemoryStore
	transcript *memoryTranscript
	ingestor   *ingest.Ingestor
}

// newFixture wires the services over an in-memory store. A nil model makes
// every generation degrade to the fallback templates.
func newFixture(t *testing.T, m ai.Model) *fixture {
	t.Helper()
	composer, err := prompt.New(prompt.Options{})
	require.NoError(t, err)

	store := session.NewMemoryStore(100, time.Hour, 100)
	transcript := &memoryTranscript{}
	var gen *ai.Generator
	if m == nil {
		gen = ai.NewGenerator(nil, ai.GeneratorOptions{}, nil)
	} else {
		gen = ai.NewGenerator(m, ai.GeneratorOptions{ChunkSize: 1000}, nil)
	}
	return &fixture{
		conv: &Conversation{
			Store:      store,
			Sequencer:  session.NewSequencer(),
			Composer:   composer,
			Generator:  gen,
			Transcript: transcript,
		},
		store:      store,
		transcript: transcript,
		ingestor:   ingest.New(ingest.Options{}, nil),
	}
}
