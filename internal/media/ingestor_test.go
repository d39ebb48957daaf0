package media_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"katalog/internal/media"
	"katalog/pkg/errs"
)

// fileHeader builds a *multipart.FileHeader the way an HTTP server would,
// by writing and re-reading a multipart body.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("Failed to create multipart part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write multipart content: %v", err)
	}
	writer.Close()

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("Failed to read multipart form: %v", err)
	}
	return form.File["images"][0]
}

func dirFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestIngestor_IngestStoresFiles(t *testing.T) {
	dir := t.TempDir()
	ingestor, err := media.NewIngestor(dir)
	assert.NoError(t, err)

	files := []*multipart.FileHeader{
		fileHeader(t, "a.png", "image/png", []byte("png-bytes")),
		fileHeader(t, "b.jpg", "image/jpeg", []byte("jpg-bytes")),
	}

	stored, err := ingestor.Ingest(files)
	assert.NoError(t, err)
	assert.Len(t, stored, 2)

	// Stored names keep the original extension and the bytes are durable.
	assert.Equal(t, ".png", filepath.Ext(stored[0]))
	assert.Equal(t, ".jpg", filepath.Ext(stored[1]))
	content, err := os.ReadFile(filepath.Join(dir, stored[0]))
	assert.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), content)
}

func TestIngestor_NamesDoNotCollideWithinBatch(t *testing.T) {
	ingestor, err := media.NewIngestor(t.TempDir())
	assert.NoError(t, err)

	files := []*multipart.FileHeader{
		fileHeader(t, "same.png", "image/png", []byte("one")),
		fileHeader(t, "same.png", "image/png", []byte("two")),
		fileHeader(t, "same.png", "image/png", []byte("three")),
	}

	stored, err := ingestor.Ingest(files)
	assert.NoError(t, err)
	seen := map[string]bool{}
	for _, name := range stored {
		assert.False(t, seen[name], "stored name %s generated twice", name)
		seen[name] = true
	}
}

func TestIngestor_RejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	ingestor, err := media.NewIngestor(dir)
	assert.NoError(t, err)

	files := []*multipart.FileHeader{
		fileHeader(t, "a.png", "image/png", []byte("fine")),
		fileHeader(t, "notes.txt", "text/plain", []byte("rejected")),
	}

	stored, err := ingestor.Ingest(files)
	assert.ErrorIs(t, err, errs.ErrNotAnImage)
	assert.Nil(t, stored)
	// Nothing from the rejected batch may be written, the valid sibling
	// included.
	assert.Empty(t, dirFiles(t, dir))
}

func TestIngestor_RejectsOversizedBatch(t *testing.T) {
	dir := t.TempDir()
	ingestor, err := media.NewIngestor(dir)
	assert.NoError(t, err)

	var files []*multipart.FileHeader
	for i := 0; i < media.MaxImagesPerBatch+1; i++ {
		files = append(files, fileHeader(t, fmt.Sprintf("f%d.png", i), "image/png", []byte("x")))
	}

	_, err = ingestor.Ingest(files)
	assert.ErrorIs(t, err, errs.ErrTooManyImages)
	assert.Empty(t, dirFiles(t, dir))
}

func TestIngestor_RejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	ingestor, err := media.NewIngestor(dir)
	assert.NoError(t, err)

	// The size check runs on the declared size before any byte is opened,
	// so a bare header is enough here.
	big := &multipart.FileHeader{
		Filename: "big.png",
		Header:   textproto.MIMEHeader{"Content-Type": []string{"image/png"}},
		Size:     media.MaxImageSize + 1,
	}

	_, err = ingestor.Ingest([]*multipart.FileHeader{big})
	assert.ErrorIs(t, err, errs.ErrImageTooLarge)
	assert.Empty(t, dirFiles(t, dir))
}

func TestIngestor_RemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ingestor, err := media.NewIngestor(dir)
	assert.NoError(t, err)

	stored, err := ingestor.Ingest([]*multipart.FileHeader{
		fileHeader(t, "a.png", "image/png", []byte("bytes")),
	})
	assert.NoError(t, err)

	ingestor.Remove(stored)
	assert.Empty(t, dirFiles(t, dir))

	// Removing already-absent files must not escalate.
	ingestor.Remove(stored)
	ingestor.Remove([]string{"never-existed.png"})
}
