package agent

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestInferImageMime(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":  "image/jpeg",
		"photo.JPEG": "image/jpeg",
		"pic.png":    "image/png",
		"anim.gif":   "image/gif",
		"shot.webp":  "image/webp",
		"doc.pdf":    "",
		"noext":      "",
	}
	for path, want := range cases {
		if got := inferImageMime(path); got != want {
			t.Errorf("inferImageMime(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestNormalizeImage_GIFPassesThroughUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anim.gif")
	original := []byte("not-a-real-gif-but-bytes-are-preserved")
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("write gif: %v", err)
	}

	data, mime, err := normalizeImage(path, "image/gif")
	if err != nil {
		t.Fatalf("normalizeImage() error = %v", err)
	}
	if mime != "image/gif" {
		t.Errorf("mime = %q, want image/gif", mime)
	}
	if string(data) != string(original) {
		t.Error("GIF bytes should pass through unchanged")
	}
}

func TestLoadImages_SkipsNonImageAndMissingFiles(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textPath, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	images := loadImages([]string{textPath, filepath.Join(dir, "missing.png")})
	if len(images) != 0 {
		t.Errorf("loadImages() = %d images, want 0", len(images))
	}
}

func TestLoadImages_EmptyInput(t *testing.T) {
	if images := loadImages(nil); images != nil {
		t.Errorf("loadImages(nil) = %v, want nil", images)
	}
}

func TestLoadImages_EncodesGIFAsBase64(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anim.gif")
	content := []byte("gif-bytes")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write gif: %v", err)
	}

	images := loadImages([]string{path})
	if len(images) != 1 {
		t.Fatalf("loadImages() = %d images, want 1", len(images))
	}
	if images[0].MimeType != "image/gif" {
		t.Errorf("MimeType = %q, want image/gif", images[0].MimeType)
	}
	decoded, err := base64.StdEncoding.DecodeString(images[0].Data)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	if string(decoded) != string(content) {
		t.Error("decoded image data does not match original file contents")
	}
}
