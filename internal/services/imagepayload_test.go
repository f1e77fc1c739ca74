package services

import (
	"encoding/base64"
	"strings"
	"testing"
)

func b64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func TestDetectImageMime_KnownSignatures(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte("\x89PNG\r\n\x1a\n rest of file"), "image/png"},
		{"jpeg", []byte("\xff\xd8\xff\xe0 jfif"), "image/jpeg"},
		{"gif87", []byte("GIF87a........"), "image/gif"},
		{"gif89", []byte("GIF89a........"), "image/gif"},
		{"bmp", []byte("BM......"), "image/bmp"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp"},
	}
	for _, tc := range cases {
		if got := DetectImageMime(b64(tc.data)); got != tc.want {
			t.Fatalf("%s: expected %q got %q", tc.name, tc.want, got)
		}
	}
}

func TestDetectImageMime_UnknownOrInvalid(t *testing.T) {
	if got := DetectImageMime(b64([]byte("plain text file"))); got != "" {
		t.Fatalf("expected empty mime, got %q", got)
	}
	if got := DetectImageMime("!!!not-base64!!!"); got != "" {
		t.Fatalf("expected empty mime for invalid base64, got %q", got)
	}
}

func TestResolveImageMime_PrefersSupportedHint(t *testing.T) {
	payload := b64([]byte("\x89PNG\r\n\x1a\n"))
	if got := ResolveImageMime("image/webp", payload); got != "image/webp" {
		t.Fatalf("expected hint to win, got %q", got)
	}
}

func TestResolveImageMime_CanonicalizesJpg(t *testing.T) {
	if got := ResolveImageMime("image/jpg", ""); got != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", got)
	}
	if got := ResolveImageMime(" IMAGE/JPEG ", ""); got != "image/jpeg" {
		t.Fatalf("expected normalized hint, got %q", got)
	}
}

func TestResolveImageMime_FallsBackToDetection(t *testing.T) {
	payload := b64([]byte("GIF89a......"))
	if got := ResolveImageMime("application/octet-stream", payload); got != "image/gif" {
		t.Fatalf("expected detected gif, got %q", got)
	}
}

func TestResolveImageMime_DefaultsToPNG(t *testing.T) {
	if got := ResolveImageMime("", b64([]byte("no magic here"))); got != "image/png" {
		t.Fatalf("expected png default, got %q", got)
	}
}

func TestToDataURL(t *testing.T) {
	got := toDataURL("abc123", "image/png")
	if !strings.HasPrefix(got, "data:image/png;base64,") || !strings.HasSuffix(got, "abc123") {
		t.Fatalf("unexpected data url: %q", got)
	}
}
