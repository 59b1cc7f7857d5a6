package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygenie/internal/model"
)

type fakeWriter struct {
	saved []model.Message
	err   error
}

func (f *fakeWriter) Create(_ context.Context, m *model.Message) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *m)
	return nil
}

func TestPersist(t *testing.T) {
	valid, err := json.Marshal(model.Message{ID: 42, SessionID: "s1", Role: "user", Kind: "tutor", Content: "hello"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		body      []byte
		writerErr error
		wantBad   bool
		wantErr   bool
		wantSaved int
	}{
		{name: "valid", body: valid, wantSaved: 1},
		{name: "not json", body: []byte("{oops"), wantBad: true, wantErr: true},
		{name: "missing session", body: []byte(`{"role":"user","content":"x"}`), wantBad: true, wantErr: true},
		{name: "writer failure", body: valid, writerErr: errors.New("db down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeWriter{err: tt.writerErr}
			w := NewTranscriptPersistWorker(nil, writer, "q", nil)

			err := w.persist(context.Background(), tt.body)
			if !tt.wantErr {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantBad, errors.Is(err, errBadPayload))
			}
			require.Len(t, writer.saved, tt.wantSaved)
			if tt.wantSaved > 0 {
				assert.Zero(t, writer.saved[0].ID)
				assert.Equal(t, "s1", writer.saved[0].SessionID)
			}
		})
	}
}
