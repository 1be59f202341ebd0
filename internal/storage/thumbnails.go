package storage

import (
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// Thumbnail returns an open cached JPEG thumbnail of the stored photo,
// generating it on first use. Cached thumbnails are reused while the
// source photo is unchanged.
func (s *PhotoStore) Thumbnail(filename string, size int) (*os.File, os.FileInfo, error) {
	if size <= 0 {
		size = 256
	}

	resolved, err := s.Resolve(filename)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, nil, err
	}

	thumbPath := filepath.Join(s.thumbnailRoot, fmt.Sprintf("%s-%d.jpg", filepath.Base(resolved), size))
	if thumbInfo, statErr := os.Stat(thumbPath); statErr == nil {
		if !thumbInfo.ModTime().Before(info.ModTime()) {
			if thumbFile, openErr := os.Open(thumbPath); openErr == nil {
				return thumbFile, thumbInfo, nil
			}
		}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, nil, err
	}

	src, _, err := image.Decode(file)
	_ = file.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("decode photo: %w", err)
	}

	return s.scaleAndCache(src, thumbPath, size)
}

func (s *PhotoStore) scaleAndCache(src image.Image, thumbPath string, size int) (*os.File, os.FileInfo, error) {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	maxDim := width
	if height > maxDim {
		maxDim = height
	}

	scale := float64(size) / float64(maxDim)
	if scale > 1 {
		scale = 1
	}

	targetWidth := int(math.Round(float64(width) * scale))
	targetHeight := int(math.Round(float64(height) * scale))
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	writer, err := os.OpenFile(thumbPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, err
	}

	encodeErr := jpeg.Encode(writer, dst, &jpeg.Options{Quality: 90})
	closeErr := writer.Close()
	if encodeErr != nil {
		return nil, nil, encodeErr
	}
	if closeErr != nil {
		return nil, nil, closeErr
	}

	thumbFile, err := os.Open(thumbPath)
	if err != nil {
		return nil, nil, err
	}

	thumbInfo, err := os.Stat(thumbPath)
	if err != nil {
		_ = thumbFile.Close()
		return nil, nil, err
	}

	return thumbFile, thumbInfo, nil
}
