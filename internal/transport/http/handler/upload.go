package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studygenie/internal/ingest"
)

var errFileTooLarge = errors.New("uploaded file is too large")

// Uploads saves multipart files to a scratch directory so ingestion can
// stream them from disk. The ingestor removes the file when it is done.
type Uploads struct {
	dir      string
	maxBytes int64
}

func NewUploads(dir string, maxBytes int64) *Uploads {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Uploads{dir: dir, maxBytes: maxBytes}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// file returns the uploaded form file named field, or nil when the request
// has none.
func (u *Uploads) file(c *gin.Context, field string) (*ingest.FileInput, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read form file failed: %w", err)
	}
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		return nil, errFileTooLarge
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	path := filepath.Join(u.dir, "upload-"+uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return nil, fmt.Errorf("save uploaded file failed: %w", err)
	}
	return &ingest.FileInput{
		Name:     filepath.Base(fh.Filename),
		MimeType: fh.Header.Get("Content-Type"),
		Path:     path,
	}, nil
}
