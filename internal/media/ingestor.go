package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"katalog/pkg/errs"
)

const (
	// MaxImagesPerBatch is the largest number of files accepted in one upload.
	MaxImagesPerBatch = 10
	// MaxImageSize is the per-file size ceiling in bytes (5 MiB).
	MaxImageSize = 5 << 20
)

// Ingestor validates uploaded image batches and persists them into the
// media directory under generated, collision-free names. It is also the
// component that reclaims files: every rollback and cascade delete goes
// through Remove.
type Ingestor struct {
	dir string
}

// NewIngestor creates an Ingestor writing to dir, creating it if needed.
func NewIngestor(dir string) (*Ingestor, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %s: %w", dir, err)
	}
	return &Ingestor{dir: dir}, nil
}

// Dir returns the media directory path.
func (ing *Ingestor) Dir() string {
	return ing.dir
}

// Ingest stores a batch of uploaded files and returns their stored
// filenames in upload order. The batch is atomic from the caller's point of
// view: every file is validated before any byte is written, and a write
// failure mid-batch removes the files already written in this call.
func (ing *Ingestor) Ingest(files []*multipart.FileHeader) ([]string, error) {
	for _, file := range files {
		if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
			return nil, errs.ErrNotAnImage
		}
	}
	if len(files) > MaxImagesPerBatch {
		return nil, errs.ErrTooManyImages
	}
	for _, file := range files {
		if file.Size > MaxImageSize {
			return nil, errs.ErrImageTooLarge
		}
	}

	stored := make([]string, 0, len(files))
	for _, file := range files {
		name := generateFilename(file.Filename)
		if err := ing.saveFile(file, name); err != nil {
			ing.Remove(stored)
			return nil, fmt.Errorf("failed to store uploaded file %s: %w", file.Filename, err)
		}
		stored = append(stored, name)
	}
	return stored, nil
}

// Remove deletes the named files from the media directory. It is
// best-effort and idempotent: already-absent files are skipped silently and
// other failures are logged without escalating. Callers must only pass
// filenames no surviving product references.
func (ing *Ingestor) Remove(names []string) {
	for _, name := range names {
		if err := os.Remove(filepath.Join(ing.dir, name)); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", name).Msg("Failed to remove media file")
		}
	}
}

// saveFile copies the uploaded bytes to the media directory under name.
func (ing *Ingestor) saveFile(file *multipart.FileHeader, name string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(ing.dir, name))
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return err
	}
	return dst.Close()
}

// generateFilename builds a stored name of the form
// <unix-nanos>-<random suffix><original extension>. The uuid-derived suffix
// keeps names from colliding within a batch or across concurrent requests.
func generateFilename(original string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), suffix, filepath.Ext(original))
}
