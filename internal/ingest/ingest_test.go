package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studygenie/internal/pkg/pdfextract/pdftest"
)

func newTestIngestor() *Ingestor {
	return New(Options{UserAgent: "StudyGenie-Test"}, zap.NewNop())
}

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestIngestText(t *testing.T) {
	ing := newTestIngestor()

	res, err := ing.Ingest(context.Background(), Input{Text: "  Photosynthesis converts light to energy.  "})
	require.NoError(t, err)
	assert.Equal(t, TypeText, res.Type)
	assert.Equal(t, "  Photosynthesis converts light to energy.  ", res.Text)

	_, err = ing.Ingest(context.Background(), Input{Text: " \n\t "})
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestIngestRequiresExactlyOneKind(t *testing.T) {
	ing := newTestIngestor()

	_, err := ing.Ingest(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ing.Ingest(context.Background(), Input{Text: "a", URL: "https://example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestFile(t *testing.T) {
	ing := newTestIngestor()

	t.Run("plain text with declared type", func(t *testing.T) {
		res, err := ing.Ingest(context.Background(), Input{File: &FileInput{
			Name:     "notes.txt",
			MimeType: "text/plain; charset=utf-8",
			Data:     []byte("Newton's first law"),
		}})
		require.NoError(t, err)
		assert.Equal(t, TypeFile, res.Type)
		assert.Equal(t, MimePlain, res.MimeType)
		assert.Equal(t, "Newton's first law", res.Text)
	})

	t.Run("sniffed plain text", func(t *testing.T) {
		res, err := ing.Ingest(context.Background(), Input{File: &FileInput{
			Name: "notes",
			Data: []byte("Cells divide by mitosis."),
		}})
		require.NoError(t, err)
		assert.Equal(t, MimePlain, res.MimeType)
	})

	t.Run("invalid utf8 is dropped", func(t *testing.T) {
		res, err := ing.Ingest(context.Background(), Input{File: &FileInput{
			MimeType: MimePlain,
			Data:     []byte("ok\xffdone"),
		}})
		require.NoError(t, err)
		assert.Equal(t, "okdone", res.Text)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := ing.Ingest(context.Background(), Input{File: &FileInput{
			Name:     "photo.png",
			MimeType: "image/png",
			Data:     []byte{0x89, 'P', 'N', 'G'},
		}})
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("broken pdf", func(t *testing.T) {
		_, err := ing.Ingest(context.Background(), Input{File: &FileInput{
			MimeType: MimePDF,
			Data:     []byte("%PDF-1.4\nnot really a pdf"),
		}})
		assert.ErrorIs(t, err, ErrEmptySource)
	})
}

func TestIngestRemovesTempFile(t *testing.T) {
	ing := newTestIngestor()

	okPath := writeTemp(t, "ok.txt", []byte("Mitochondria are the powerhouse of the cell."))
	res, err := ing.Ingest(context.Background(), Input{File: &FileInput{Name: "ok.txt", MimeType: MimePlain, Path: okPath}})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Mitochondria")
	assert.NoFileExists(t, okPath)

	badPath := writeTemp(t, "bad.bin", []byte{0x00, 0x01, 0x02})
	_, err = ing.Ingest(context.Background(), Input{File: &FileInput{Name: "bad.bin", MimeType: "application/zip", Path: badPath}})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.NoFileExists(t, badPath)

	emptyPath := writeTemp(t, "empty.txt", []byte("   "))
	_, err = ing.Ingest(context.Background(), Input{File: &FileInput{Name: "empty.txt", MimeType: MimePlain, Path: emptyPath}})
	assert.ErrorIs(t, err, ErrEmptySource)
	assert.NoFileExists(t, emptyPath)
}

func TestIngestPDF(t *testing.T) {
	ing := newTestIngestor()
	doc := pdftest.Build("Photosynthesis converts light to energy.")

	t.Run("declared type", func(t *testing.T) {
		res, err := ing.Ingest(context.Background(), Input{File: &FileInput{Name: "bio.pdf", MimeType: MimePDF, Data: doc}})
		require.NoError(t, err)
		assert.Equal(t, TypeFile, res.Type)
		assert.Equal(t, MimePDF, res.MimeType)
		assert.Equal(t, "Photosynthesis converts light to energy.", res.Text)
	})

	t.Run("sniffed from saved upload", func(t *testing.T) {
		path := writeTemp(t, "upload.bin", doc)
		res, err := ing.Ingest(context.Background(), Input{File: &FileInput{Name: "bio.pdf", MimeType: "application/octet-stream", Path: path}})
		require.NoError(t, err)
		assert.Equal(t, MimePDF, res.MimeType)
		assert.Contains(t, res.Text, "Photosynthesis")
		assert.NoFileExists(t, path)
	})

	t.Run("pdf without text", func(t *testing.T) {
		_, err := ing.Ingest(context.Background(), Input{File: &FileInput{Name: "blank.pdf", MimeType: MimePDF, Data: pdftest.Build("")}})
		assert.ErrorIs(t, err, ErrEmptySource)
	})
}

func TestIngestURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "StudyGenie-Test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Energy</title></head><body>
<nav>menu</nav><div><p>Photosynthesis converts light to energy.</p></div></body></html>`))
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("raw notes"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script>x()</script></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ing := newTestIngestor()

	res, err := ing.Ingest(context.Background(), Input{URL: server.URL + "/article"})
	require.NoError(t, err)
	assert.Equal(t, TypeURL, res.Type)
	assert.Equal(t, "Energy", res.Name)
	assert.Equal(t, "Photosynthesis converts light to energy.", res.Text)

	res, err = ing.Ingest(context.Background(), Input{URL: server.URL + "/plain"})
	require.NoError(t, err)
	assert.Equal(t, "raw notes", res.Text)

	tests := []struct {
		name string
		url  string
	}{
		{name: "not found", url: server.URL + "/missing"},
		{name: "no readable content", url: server.URL + "/empty"},
		{name: "bad scheme", url: "ftp://example.com/file"},
		{name: "unreachable", url: "http://127.0.0.1:1/nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ing.Ingest(context.Background(), Input{URL: tt.url})
			assert.ErrorIs(t, err, ErrSourceFetch)
		})
	}
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, MimePDF, DetectMimeType("Application/PDF", nil))
	assert.Equal(t, MimePDF, DetectMimeType("application/octet-stream", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")))
	assert.Equal(t, MimePlain, DetectMimeType("", []byte("hello world")))
}
