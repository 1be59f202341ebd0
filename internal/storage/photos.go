package storage

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pdl-records/pkg/apierror"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PhotoStore keeps mugshot files under a single root and hands out bare
// filenames as references. URL resolution happens at read time in the
// service layer.
type PhotoStore struct {
	root          string
	thumbnailRoot string
}

func NewPhotoStore(root string) (*PhotoStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}

	thumbs := filepath.Join(abs, "thumbnails")
	for _, dir := range []string{abs, thumbs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload directory: %w", err)
		}
	}

	return &PhotoStore{root: abs, thumbnailRoot: thumbs}, nil
}

func (s *PhotoStore) Root() string { return s.root }

// Save writes the uploaded bytes and returns the generated filename. The
// payload must decode as an image; anything else is rejected before a
// file lands on disk.
func (s *PhotoStore) Save(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
	default:
		return "", apierror.Validation("unsupported photo format", ext)
	}

	tmp, err := os.CreateTemp(s.root, "upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp photo: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write photo: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("rewind photo: %w", err)
	}

	if _, _, err := image.DecodeConfig(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", apierror.Validation("file is not a valid image", "")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close photo: %w", err)
	}

	filename := "pdl-" + uuid.NewString() + ext
	if err := os.Rename(tmpName, filepath.Join(s.root, filename)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("store photo: %w", err)
	}

	return filename, nil
}

// Remove deletes a stored photo and its cached thumbnails. Missing files
// are not an error; removal is used on failure paths where the file may
// never have been written.
func (s *PhotoStore) Remove(filename string) error {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil
	}

	if err := os.Remove(filepath.Join(s.root, filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}

	matches, _ := filepath.Glob(filepath.Join(s.thumbnailRoot, filename+"-*"))
	for _, m := range matches {
		_ = os.Remove(m)
	}

	return nil
}

// Resolve returns the absolute on-disk path for a stored filename, or an
// error when the file does not exist.
func (s *PhotoStore) Resolve(filename string) (string, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	path := filepath.Join(s.root, filename)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apierror.New("NOT_FOUND", "photo not found", filename, http.StatusNotFound)
		}
		return "", err
	}

	return path, nil
}
