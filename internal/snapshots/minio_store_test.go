package snapshots

import (
	"net/url"
	"testing"
)

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"image/png":                ".png",
		"image/jpeg":               ".jpg",
		"image/jpg":                ".jpg",
		"image/webp":               ".webp",
		"application/octet-stream": "",
	}
	for mime, want := range cases {
		if got := extensionFor(mime); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestObjectURLWithBase(t *testing.T) {
	base, _ := url.Parse("https://cdn.example.com/media/")
	s := &MinioStore{bucket: "snapshots", baseURL: base}

	got := s.objectURL("snapshots/2026/08/30/abc.png")
	want := "https://cdn.example.com/media/snapshots/2026/08/30/abc.png"
	if got != want {
		t.Errorf("objectURL = %q, want %q", got, want)
	}
}

func TestNewMinioStoreRequiresCredentials(t *testing.T) {
	if _, err := NewMinioStore(Config{Endpoint: "localhost:9000", Bucket: "b"}); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewMinioStore(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}); err == nil {
		t.Error("expected error without bucket")
	}
}
