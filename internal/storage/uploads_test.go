package storage

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"underground/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func TestStoreSaveAudio(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	payload := []byte("not really an mp3 but close enough")
	name, err := store.SaveAudio(fileHeader(t, "demo.mp3", "audio/mpeg", payload))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".mp3"))
	assert.NotContains(t, name, "demo")

	f, size, err := store.Open(name)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(len(payload)), size)

	saved, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, payload, saved)
}

func TestStoreRejectsUnsupportedTypes(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveAudio(fileHeader(t, "script.sh", "application/x-sh", []byte("#!/bin/sh")))
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = store.SaveImage(fileHeader(t, "movie.mp4", "video/mp4", []byte("x")))
	require.Error(t, err)

	// nothing should have been written
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreSaveImageHandlesParameters(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveImage(fileHeader(t, "cover.png", "image/png; charset=binary", []byte{0x89, 0x50}))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))
}

func TestStoreOpenRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	secret := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keys"), 0o600))

	_, _, err = store.Open("../secret.txt")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveImage(fileHeader(t, "cover.jpg", "image/jpeg", []byte("jpg")))
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))
	require.NoError(t, store.Remove(name))

	_, _, err = store.Open(name)
	require.Error(t, err)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "audio/mpeg", ContentTypeFor("abc.mp3"))
	assert.Equal(t, "audio/flac", ContentTypeFor("abc.FLAC"))
	assert.Equal(t, "image/webp", ContentTypeFor("c.webp"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("c.bin"))
}
