package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

const defaultImageMime = "image/png"

var supportedImageMimes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
}

var canonicalImageMimes = map[string]string{
	"image/jpg": "image/jpeg",
}

var imageMagicSignatures = []struct {
	magic []byte
	mime  string
}{
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte("\xff\xd8\xff"), "image/jpeg"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	{[]byte("BM"), "image/bmp"},
}

// ResolveImageMime prefers the client-provided hint, then magic-byte
// detection, then the PNG default.
func ResolveImageMime(hint, imageB64 string) string {
	normalized := normalizeImageMime(hint)
	if normalized != "" && supportedImageMimes[normalized] {
		return normalized
	}
	if detected := DetectImageMime(imageB64); detected != "" {
		return detected
	}
	return defaultImageMime
}

// DetectImageMime sniffs file signatures from the base64 prefix.
func DetectImageMime(imageB64 string) string {
	prefix := imageB64
	if len(prefix) > 96 {
		prefix = prefix[:96]
	}
	header, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(prefix, "="))
	if err != nil {
		return ""
	}
	for _, sig := range imageMagicSignatures {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.mime
		}
	}
	if bytes.HasPrefix(header, []byte("RIFF")) && len(header) >= 12 && bytes.Equal(header[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	return ""
}

func toDataURL(imageB64, mime string) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, imageB64)
}

func normalizeImageMime(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if canonical, ok := canonicalImageMimes[normalized]; ok {
		return canonical
	}
	return normalized
}
