package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"studygenie/internal/pkg/pdfextract"
	"studygenie/internal/pkg/readability"
)

var (
	ErrInvalidInput    = errors.New("exactly one of file, url or text is required")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrSourceFetch     = errors.New("failed to scrape content from provided url")
	ErrEmptySource     = errors.New("could not extract meaningful content from the provided source")
)

type SourceType string

const (
	TypeFile SourceType = "file"
	TypeURL  SourceType = "url"
	TypeText SourceType = "text"
)

const (
	MimePDF      = "application/pdf"
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"

	defaultFetchTimeout  = 15 * time.Second
	defaultMaxFetchBytes = 2 << 20
)

// FileInput is an uploaded file. When Path is set the file lives on disk and
// is removed once Ingest returns, whatever the outcome.
type FileInput struct {
	Name     string
	MimeType string
	Path     string
	Data     []byte
}

type Input struct {
	File *FileInput
	URL  string
	Text string
}

type Result struct {
	Type     SourceType
	Name     string
	MimeType string
	Text     string
}

type Options struct {
	HTTPClient    *http.Client
	FetchTimeout  time.Duration
	MaxFetchBytes int64
	UserAgent     string
}

type Ingestor struct {
	httpClient    *http.Client
	maxFetchBytes int64
	userAgent     string
	logger        *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Ingestor {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.FetchTimeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxFetchBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxFetchBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		httpClient:    client,
		maxFetchBytes: maxBytes,
		userAgent:     opts.UserAgent,
		logger:        logger,
	}
}

func (i *Ingestor) Ingest(ctx context.Context, in Input) (Result, error) {
	if in.File != nil && in.File.Path != "" {
		defer i.removeTemp(in.File.Path)
	}

	kinds := 0
	if in.File != nil {
		kinds++
	}
	if strings.TrimSpace(in.URL) != "" {
		kinds++
	}
	if in.Text != "" {
		kinds++
	}
	if kinds != 1 {
		return Result{}, ErrInvalidInput
	}

	var (
		res Result
		err error
	)
	switch {
	case in.File != nil:
		res, err = i.ingestFile(in.File)
	case strings.TrimSpace(in.URL) != "":
		res, err = i.ingestURL(ctx, strings.TrimSpace(in.URL))
	default:
		res = Result{Type: TypeText, Name: "text", MimeType: MimePlain, Text: in.Text}
	}
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return Result{}, ErrEmptySource
	}
	return res, nil
}

func (i *Ingestor) ingestFile(file *FileInput) (Result, error) {
	data := file.Data
	if file.Path != "" {
		raw, err := os.ReadFile(file.Path)
		if err != nil {
			return Result{}, fmt.Errorf("read uploaded file failed: %w", err)
		}
		data = raw
	}

	mimeType := DetectMimeType(file.MimeType, data)
	res := Result{Type: TypeFile, Name: file.Name, MimeType: mimeType}

	switch mimeType {
	case MimePDF:
		text, err := pdfextract.ExtractBytes(data)
		if err != nil {
			i.logger.Warn("pdf extraction failed", zap.String("file", file.Name), zap.Error(err))
			return Result{}, fmt.Errorf("%w: %v", ErrEmptySource, err)
		}
		res.Text = strings.TrimSpace(text)
	case MimePlain, MimeMarkdown:
		res.Text = decodeUTF8(data)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	return res, nil
}

func (i *Ingestor) ingestURL(ctx context.Context, target string) (Result, error) {
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Result{}, fmt.Errorf("%w: invalid url", ErrSourceFetch)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	if i.userAgent != "" {
		req.Header.Set("User-Agent", i.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		i.logger.Warn("fetch source url failed", zap.String("url", target), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w: %s", ErrSourceFetch, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, i.maxFetchBytes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}

	res := Result{Type: TypeURL, Name: target, MimeType: "text/html"}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), MimePlain) {
		res.MimeType = MimePlain
		res.Text = decodeUTF8(body)
	} else {
		article, err := readability.Extract(bytes.NewReader(body))
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrSourceFetch, err)
		}
		if article.Title != "" {
			res.Name = article.Title
		}
		res.Text = article.Text
	}

	if strings.TrimSpace(res.Text) == "" {
		return Result{}, fmt.Errorf("%w: no readable content", ErrSourceFetch)
	}
	return res, nil
}

func (i *Ingestor) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		i.logger.Warn("remove temp upload failed", zap.String("path", path), zap.Error(err))
	}
}

// DetectMimeType normalises the declared type and sniffs the content when the
// declaration is missing or generic.
func DetectMimeType(declared string, data []byte) string {
	declared = normalizeMime(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return normalizeMime(mimetype.Detect(data).String())
}

func normalizeMime(value string) string {
	base, _, _ := strings.Cut(value, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func decodeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}
