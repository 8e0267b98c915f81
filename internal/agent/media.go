package agent

import (
	"bytes"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/nanorelay/nanorelay/internal/providers"
)

// maxImageBytes is the safety limit for reading image files (10MB).
const maxImageBytes = 10 * 1024 * 1024

// maxImageDimension caps the longer edge a provider receives; anything wider
// is downscaled, which also strips EXIF orientation quirks along the way.
const maxImageDimension = 1568

// loadImages reads local image files, normalizes orientation and size, and
// returns base64-encoded ImageContent slices. Non-image files and files that
// fail to read or decode are skipped with a warning log.
func loadImages(paths []string) []providers.ImageContent {
	if len(paths) == 0 {
		return nil
	}

	var images []providers.ImageContent
	for _, p := range paths {
		mime := inferImageMime(p)
		if mime == "" {
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			slog.Warn("vision: failed to stat image file", "path", p, "error", err)
			continue
		}
		if info.Size() > maxImageBytes {
			slog.Warn("vision: image file too large, skipping", "path", p, "size", info.Size())
			continue
		}

		data, mime, err := normalizeImage(p, mime)
		if err != nil {
			slog.Warn("vision: failed to load image, skipping", "path", p, "error", err)
			continue
		}

		images = append(images, providers.ImageContent{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(data),
		})
	}
	return images
}

// normalizeImage decodes an image, auto-orients it per its EXIF tag, and
// downscales it if it exceeds maxImageDimension, re-encoding as JPEG. GIFs
// are passed through untouched since downscaling would drop animation.
func normalizeImage(path, mime string) ([]byte, string, error) {
	if mime == "image/gif" {
		data, err := os.ReadFile(path)
		return data, mime, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}

// inferImageMime returns the MIME type for supported image extensions, or "" if not an image.
func inferImageMime(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
