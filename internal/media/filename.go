package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
)

const maxNameAttempts = 1000

// FileNameFromURL derives a safe file name from the last path segment of raw.
func FileNameFromURL(raw string) string {
	name := ""
	if u, err := url.Parse(raw); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return SanitizeFileName(name)
}

// SanitizeFileName lowercases the name and replaces anything outside
// [a-z0-9._-] with a dash.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	out := strings.Trim(b.String(), ".-")
	if out == "" {
		return "image"
	}
	return out
}

// UniqueFileName returns name, or name with a numeric suffix before the
// extension ("photo-1.jpg", "photo-2.jpg", ...), such that dir/name is not yet
// taken in store.
func UniqueFileName(ctx context.Context, store Storage, dir, name string) (string, error) {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; i <= maxNameAttempts; i++ {
		exists, err := store.Exists(ctx, path.Join(dir, candidate))
		if err != nil {
			return "", fmt.Errorf("check %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
	}

	return "", fmt.Errorf("no free file name for %s after %d attempts", name, maxNameAttempts)
}

// DetectMIME sniffs the content type and falls back to the extension when the
// content is not recognised.
func DetectMIME(data []byte, fileName string) string {
	detected := mimetype.Detect(data)
	if !detected.Is("application/octet-stream") {
		return detected.String()
	}
	if byExt := extensionMIME(path.Ext(fileName)); byExt != "" {
		return byExt
	}
	return detected.String()
}

func extensionMIME(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return ""
}
