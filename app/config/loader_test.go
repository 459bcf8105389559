package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTextSourceList(t *testing.T) {
	path := writeFile(t, "sources.txt", `
# world news
https://feeds.bbci.co.uk/news/world/rss.xml

  https://www.aljazeera.com/xml/rss/all.xml
# duplicate below
https://feeds.bbci.co.uk/news/world/rss.xml
`)

	sources, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].URL != "https://feeds.bbci.co.uk/news/world/rss.xml" {
		t.Errorf("Unexpected first source: %s", sources[0].URL)
	}
	if sources[1].URL != "https://www.aljazeera.com/xml/rss/all.xml" {
		t.Errorf("Unexpected second source: %s", sources[1].URL)
	}
}

func TestLoadYAMLSourceList(t *testing.T) {
	path := writeFile(t, "sources.yml", `
sources:
  - url: "https://feeds.npr.org/1004/rss.xml"
    name: "NPR World"
  - url: "https://www.france24.com/en/rss"
`)

	sources, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].Name != "NPR World" {
		t.Errorf("Expected name 'NPR World', got '%s'", sources[0].Name)
	}
	if sources[1].Name != "" {
		t.Errorf("Expected empty name, got '%s'", sources[1].Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.txt")).Load()
	if err == nil {
		t.Error("Expected error for missing source list")
	}
}

func TestLoadInvalidSource(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unsupported scheme", "ftp://example.com/feed.xml\n"},
		{"no host", "https:///feed.xml\n"},
		{"empty list", "# nothing here\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "sources.txt", tt.content)
			if _, err := NewLoader(path).Load(); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestSourceNames(t *testing.T) {
	s := Source{URL: "https://www.rt.com/rss/news/"}

	if s.Label() != "rt.com" {
		t.Errorf("Expected label 'rt.com', got '%s'", s.Label())
	}
	if s.DisplayName("RT World News") != "RT World News" {
		t.Errorf("Expected feed title, got '%s'", s.DisplayName("RT World News"))
	}
	if s.DisplayName("  ") != "Unknown" {
		t.Errorf("Expected 'Unknown', got '%s'", s.DisplayName("  "))
	}

	named := Source{URL: "https://www.rt.com/rss/news/", Name: "RT"}
	if named.DisplayName("RT World News") != "RT" {
		t.Errorf("Expected configured name, got '%s'", named.DisplayName("RT World News"))
	}
}
