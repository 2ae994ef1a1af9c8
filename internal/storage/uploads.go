// Package storage persists uploaded audio and image files on local disk.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"underground/internal/models"

	"github.com/google/uuid"
)

const (
	// MaxAudioSize is the upload ceiling for audio files (100 MB).
	MaxAudioSize = 100 << 20
	// MaxImageSize is the upload ceiling for cover images (10 MB).
	MaxImageSize = 10 << 20
)

// Extensions by accepted MIME type. Anything else is rejected.
var audioExtensions = map[string]string{
	"audio/mpeg": ".mp3",
	"audio/mp3":  ".mp3",
	"audio/wav":  ".wav",
	"audio/flac": ".flac",
	"audio/ogg":  ".ogg",
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store writes uploads into a flat directory with random names, so a stored
// filename never collides and never leaks the original name.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// SaveAudio validates and stores an uploaded audio file, returning the
// generated filename.
func (s *Store) SaveAudio(fh *multipart.FileHeader) (string, error) {
	return s.save(fh, audioExtensions, MaxAudioSize, "audio")
}

// SaveImage validates and stores an uploaded image, returning the generated
// filename.
func (s *Store) SaveImage(fh *multipart.FileHeader) (string, error) {
	return s.save(fh, imageExtensions, MaxImageSize, "image")
}

func (s *Store) save(fh *multipart.FileHeader, allowed map[string]string, maxSize int64, kind string) (string, error) {
	if fh.Size > maxSize {
		return "", models.NewValidationError(fmt.Sprintf("%s file exceeds the %d MB limit", kind, maxSize>>20))
	}

	contentType := normalizeContentType(fh.Header.Get("Content-Type"))
	ext, ok := allowed[contentType]
	if !ok {
		return "", models.NewValidationError(fmt.Sprintf("unsupported %s type %q", kind, contentType))
	}

	src, err := fh.Open()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer src.Close()

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer dst.Close()

	// LimitReader guards against a forged Content-Length
	if _, err := io.Copy(dst, io.LimitReader(src, maxSize+1)); err != nil {
		os.Remove(dst.Name())
		return "", models.NewInternalError(err)
	}
	if info, err := dst.Stat(); err == nil && info.Size() > maxSize {
		os.Remove(dst.Name())
		return "", models.NewValidationError(fmt.Sprintf("%s file exceeds the %d MB limit", kind, maxSize>>20))
	}

	return name, nil
}

// Open returns the stored file and its size for streaming. The name is
// reduced to its base so a crafted path cannot escape the upload dir.
func (s *Store) Open(name string) (*os.File, int64, error) {
	clean := filepath.Base(name)
	f, err := os.Open(filepath.Join(s.dir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, models.NewNotFoundError("File", clean)
		}
		return nil, 0, models.NewInternalError(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, models.NewInternalError(err)
	}
	return f, info.Size(), nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ContentTypeFor maps a stored filename back to its MIME type for responses.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func normalizeContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
